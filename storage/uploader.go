// Package storage publishes rendered report artifacts, either to a local
// output directory or to a Cloudflare R2 bucket.
package storage

import (
	"context"
	"io"
)

// ContentTypeHTML is the content type of every rendered report page.
const ContentTypeHTML = "text/html; charset=utf-8"

// UploadResult describes a stored artifact. Location is the public URL the
// report links to.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores report artifacts under slash-separated keys such as
// "leagues/l1.html". Upload replaces any artifact already at key.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
