package types

import "io"

// MediaBlob is one validated upload waiting to be written to the blob store.
type MediaBlob struct {
	File        io.Reader
	Name        string
	Extension   string
	ContentType string
	Size        int64
}

// StoredMedia is what the blob store hands back after a successful upload.
type StoredMedia struct {
	URL  string
	Path string
}
