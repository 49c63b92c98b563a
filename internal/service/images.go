package service

import (
	"context"
	"fmt"

	"orders-api/internal/model"
	"orders-api/internal/storage"

	"github.com/rs/zerolog"
)

// imageUploader stores base64 images and undoes uploads when the surrounding
// write fails.
type imageUploader struct {
	files     storage.FileStorage
	container string
	logger    zerolog.Logger
}

// upload stores every base64 value and keeps values that are already URLs.
// It returns the resulting URLs and the subset that was newly uploaded.
func (u imageUploader) upload(ctx context.Context, values []string) (urls, uploaded []string, err error) {
	urls = make([]string, 0, len(values))
	for i, value := range values {
		if storage.IsURL(value) {
			urls = append(urls, value)
			continue
		}

		content, ext, decodeErr := storage.DecodeImage(value)
		if decodeErr != nil {
			u.discard(ctx, uploaded)
			return nil, nil, model.ValidationFailed(fmt.Sprintf("image %d: %v", i+1, decodeErr))
		}

		url, saveErr := u.files.SaveFile(ctx, content, ext, u.container)
		if saveErr != nil {
			u.discard(ctx, uploaded)
			return nil, nil, fmt.Errorf("failed to store image: %w", saveErr)
		}
		urls = append(urls, url)
		uploaded = append(uploaded, url)
	}
	return urls, uploaded, nil
}

// discard removes blobs, logging failures. It is used both for rollback and
// for cleanup after a committed delete.
func (u imageUploader) discard(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := u.files.RemoveFile(ctx, url, u.container); err != nil {
			u.logger.Warn().Err(err).Str("url", url).Msg("failed to remove stored image")
		}
	}
}
