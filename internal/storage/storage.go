// Package storage keeps uploaded images (product pictures, user photos) and
// hands back the public URL stored on the entity row.
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Containers used by the services.
const (
	ContainerProducts = "products"
	ContainerUsers    = "users"
)

// FileStorage saves and removes blobs addressed by container.
type FileStorage interface {
	// SaveFile stores content and returns its public URL.
	SaveFile(ctx context.Context, content []byte, extension, container string) (string, error)

	// RemoveFile deletes the blob behind url. Unknown URLs are ignored.
	RemoveFile(ctx context.Context, url, container string) error
}

// IsURL reports whether an image value already points at a stored file.
func IsURL(value string) bool {
	return strings.HasPrefix(value, "https://") || strings.HasPrefix(value, "http://")
}

// DecodeImage decodes a base64 image, optionally wrapped in a data URI,
// and returns its bytes and a file extension derived from the content.
func DecodeImage(value string) ([]byte, string, error) {
	payload := value
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ","); i >= 0 {
			payload = payload[i+1:]
		}
	}

	content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image: %w", err)
	}
	if len(content) == 0 {
		return nil, "", fmt.Errorf("empty image")
	}

	return content, extensionFor(http.DetectContentType(content)), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func newObjectName(extension string) string {
	return uuid.NewString() + extension
}
