package portfolio

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrNotFound indicates a record with the given id does not exist
	ErrNotFound = errors.New("record not found")

	// ErrMissingRequiredAsset indicates a creation or update would leave a record without its required media
	ErrMissingRequiredAsset = errors.New("missing required asset")

	// ErrInvalidInput indicates a request field failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedMedia indicates an upload whose type is not accepted for its field
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrExternalServiceUnavailable indicates a required third-party call could not be made or failed
	ErrExternalServiceUnavailable = errors.New("external service unavailable")

	// ErrExternalServiceNoResult indicates a third-party call succeeded but found nothing
	ErrExternalServiceNoResult = errors.New("external service returned no result")

	// ErrStorageFailure indicates a blob store operation failed for a reason other than a missing file
	ErrStorageFailure = errors.New("storage failure")

	// ErrBlobNotFound indicates a blob key does not exist in the blob store
	ErrBlobNotFound = errors.New("blob not found")

	// ErrConcurrentUpdate indicates the record changed between read and commit
	ErrConcurrentUpdate = errors.New("record was modified concurrently")
)

// RecordError represents an error related to a track or video operation
type RecordError struct {
	Kind string
	ID   uuid.UUID
	Op   string
	Err  error
}

func (e *RecordError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("%s operation %s failed: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s operation %s failed for %s: %v", e.Kind, e.Op, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob store operations.
// It always matches ErrStorageFailure, and also the wrapped cause.
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageFailure, e.Err}
}

// IsBlobNotFound reports whether err means the blob is already absent.
func IsBlobNotFound(err error) bool {
	return errors.Is(err, ErrBlobNotFound)
}
