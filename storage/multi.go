package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// multiUploader writes every artifact to a primary uploader and then to each
// mirror. Results and URLs come from the primary.
type multiUploader struct {
	primary FileUploader
	mirrors []FileUploader
}

func NewMultiUploader(primary FileUploader, mirrors ...FileUploader) FileUploader {
	if len(mirrors) == 0 {
		return primary
	}
	return &multiUploader{primary: primary, mirrors: mirrors}
}

func (u *multiUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer %s: %w", key, err)
	}
	result, err := u.primary.Upload(ctx, key, contentType, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for _, m := range u.mirrors {
		if _, err := m.Upload(ctx, key, contentType, bytes.NewReader(body)); err != nil {
			return nil, fmt.Errorf("mirror upload of %s: %w", key, err)
		}
	}
	return result, nil
}

func (u *multiUploader) Delete(ctx context.Context, key string) error {
	if err := u.primary.Delete(ctx, key); err != nil {
		return err
	}
	for _, m := range u.mirrors {
		if err := m.Delete(ctx, key); err != nil {
			return fmt.Errorf("mirror delete of %s: %w", key, err)
		}
	}
	return nil
}

func (u *multiUploader) GetPublicURL(key string) string {
	return u.primary.GetPublicURL(key)
}
