package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

// multipartMemory is how much of a multipart body is buffered before
// spilling file parts to temporary files.
const multipartMemory = 32 << 20

// form gives presence-aware access to a parsed write request.
type form struct {
	r       *http.Request
	closers []io.Closer
}

// parseForm reads a multipart or urlencoded body capped at maxBytes.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, formError(err)
	}
	return &form{r: r}, nil
}

// close releases opened files and any temporary files of the multipart form.
func (f *form) close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
	if f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}

// value returns a field and whether it was sent at all.
func (f *form) value(name string) (string, bool) {
	vs, ok := f.r.PostForm[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (f *form) str(name string) string {
	v, _ := f.value(name)
	return v
}

func (f *form) optional(name string) *string {
	v, ok := f.value(name)
	if !ok {
		return nil
	}
	return &v
}

// flag parses a checkbox style boolean. Absent means nil.
func (f *form) flag(name string) (*bool, error) {
	v, ok := f.value(name)
	if !ok {
		return nil, nil
	}
	b, err := parseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", portfolio.ErrInvalidInput, name)
	}
	return &b, nil
}

func (f *form) boolean(name string) (bool, error) {
	b, err := f.flag(name)
	if err != nil || b == nil {
		return false, err
	}
	return *b, nil
}

// file opens an uploaded file. Browsers submit an empty part for an
// untouched file input, which counts as absent.
func (f *form) file(name string) (*portfolio.Upload, error) {
	if f.r.MultipartForm == nil {
		return nil, nil
	}
	headers := f.r.MultipartForm.File[name]
	if len(headers) == 0 {
		return nil, nil
	}
	fh := headers[0]
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil
	}
	return f.open(fh)
}

func (f *form) open(fh *multipart.FileHeader) (*portfolio.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable upload %s: %v", portfolio.ErrInvalidInput, fh.Filename, err)
	}
	f.closers = append(f.closers, file)
	return &portfolio.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Reader:      file,
	}, nil
}

// change turns a file field, a URL field and a remove flag into one asset
// change. Sending more than one of them is rejected.
func (f *form) change(fileField, urlField, removeField string) (*portfolio.AssetChange, error) {
	upload, err := f.file(fileField)
	if err != nil {
		return nil, err
	}
	ref := ""
	if urlField != "" {
		ref = strings.TrimSpace(f.str(urlField))
	}
	remove := false
	if removeField != "" {
		if remove, err = f.boolean(removeField); err != nil {
			return nil, err
		}
	}

	set := 0
	for _, b := range []bool{upload != nil, ref != "", remove} {
		if b {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("%w: %s conflicts with another field for the same asset", portfolio.ErrInvalidInput, fileField)
	}

	switch {
	case upload != nil:
		return portfolio.ReplaceWithUpload(upload), nil
	case ref != "":
		return portfolio.ReplaceWithReference(ref), nil
	case remove:
		return portfolio.ClearAsset(), nil
	}
	return nil, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "off", "no":
		return false, nil
	case "on", "yes":
		return true, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}
