// Package media stores catalog and slideshow images in GCS.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

const defaultMaxUploadBytes = 10 << 20

// Folders images may be uploaded into.
const (
	FolderProducts   = "products"
	FolderCategories = "categories"
	FolderSlideshow  = "slideshow"
)

var folders = map[string]struct{}{
	FolderProducts:   {},
	FolderCategories: {},
	FolderSlideshow:  {},
}

type objectStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, body io.Reader) error
	DeleteObject(ctx context.Context, bucket, object string) error
	PublicURL(bucket, object string) string
	ObjectFromURL(raw string) (bucket, object string, ok bool)
}

// Service uploads and removes images.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, url string) error
}

type UploadInput struct {
	Folder      string
	FileName    string
	ContentType string
	Body        io.Reader
}

type UploadResult struct {
	URL         string `json:"url"`
	Object      string `json:"object"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type service struct {
	store    objectStore
	maxBytes int64
	logg     *logger.Logger
	newID    func() uuid.UUID
}

// NewService builds the media service. maxBytes <= 0 uses the 10 MiB default.
func NewService(store objectStore, maxBytes int64, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &service{store: store, maxBytes: maxBytes, logg: logg, newID: uuid.New}, nil
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	folder := strings.ToLower(strings.TrimSpace(input.Folder))
	if _, ok := folders[folder]; !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown upload folder %q", input.Folder)
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}

	declared := ""
	if input.ContentType != "" {
		parsed, err := parseMimeType(input.ContentType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content type")
		}
		declared = parsed
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file must be at most %d bytes", s.maxBytes).
			WithDetails(map[string]any{"maxBytes": s.maxBytes})
	}

	contentType, err := sniffImage(declared, data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported image")
	}

	object := path.Join(folder, s.newID().String()+imageTypes[contentType])
	if err := s.store.Upload(ctx, "", object, contentType, bytes.NewReader(data)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store image")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"object":    object,
		"file_name": sanitizeFileName(input.FileName),
		"size":      len(data),
	})
	s.logg.Info(ctx, "image uploaded")

	return &UploadResult{
		URL:         s.store.PublicURL("", object),
		Object:      object,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}, nil
}

// Delete removes an image this service stored. URLs pointing elsewhere, such
// as the default placeholder, are ignored.
func (s *service) Delete(ctx context.Context, url string) error {
	bucket, object, ok := s.store.ObjectFromURL(strings.TrimSpace(url))
	if !ok {
		return nil
	}
	if err := s.store.DeleteObject(ctx, bucket, object); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	return nil
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "." || clean == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, clean)
}
