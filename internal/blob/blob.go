// Package blob stores attachment files and hands back the URL entities keep
// in their fileUrl, imageUrl and attachments fields.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"fleet/internal/config"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

// Store persists opaque file contents under a key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// Key builds the object key for an upload: {company}/{kind}/{uuid}-{name}.
// The file name is reduced to its base and stripped of separators.
func Key(companyID, kind, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == ' ' || r < 0x20:
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "" {
		name = "file"
	}
	return companyID + "/" + kind + "/" + uuid.NewString() + "-" + name
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// Open builds the store selected by cfg.
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(cfg.PublicURL), nil
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			PathStyle: cfg.PathStyle,
			PublicURL: cfg.PublicURL,
		})
	}
	return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
}
