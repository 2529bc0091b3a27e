// Package portfolio provides the content backend for a portfolio site: music
// tracks and videos whose records own uploaded media files or point at media
// hosted by third parties.
//
// It exposes a single Service interface that orchestrates record creation,
// partial updates and deletion across a Repository (the Content Store) and a
// BlobStore, with optional metadata enrichment through a MetadataResolver.
// Implementations of repositories (memory, Postgres) and blob stores (memory,
// filesystem, S3) are provided under subpackages.
//
// Asset Ownership
//
// Every asset field is an AssetRef carrying an explicit AssetOrigin. Only
// AssetOriginLocal refs are ever written to or deleted from the BlobStore;
// external refs (SoundCloud URLs, artwork URLs) are stored verbatim and never
// touched.
//
// Write Ordering
//
// Uploads are written before the row is committed and replaced files are
// deleted after it is committed. A failure in between leaves an orphaned blob
// rather than a record pointing at a missing file; orphans are collected by
// the Reconciler.
package portfolio
