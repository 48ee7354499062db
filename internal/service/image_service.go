package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	apperrors "campusafe/internal/errors"
	"campusafe/internal/imaging"
)

// Image folders in object storage.
const (
	itemImageFolder    = "items"
	claimImageFolder   = "claims"
	profileImageFolder = "profiles"
)

// ImageStore is where processed images are uploaded. *storage.MinIOStorage satisfies it.
type ImageStore interface {
	Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// ImageService turns a client supplied image reference into what gets stored.
type ImageService interface {
	// Prepare returns "" for "", URLs unchanged, and a stored URL or a
	// normalized JPEG data URI for data URIs.
	Prepare(ctx context.Context, folder, value string) (string, error)
	// Discard deletes an uploaded image that ended up unused. Inline images and "" are ignored.
	Discard(ctx context.Context, ref string)
}

type imageService struct {
	store ImageStore
}

// NewImageService builds an ImageService. A nil store keeps images inline as data URIs.
func NewImageService(store ImageStore) ImageService {
	return &imageService{store: store}
}

func (s *imageService) Prepare(ctx context.Context, folder, value string) (string, error) {
	switch {
	case value == "":
		return "", nil
	case imaging.IsRemoteURL(value):
		return value, nil
	case !imaging.IsDataURI(value):
		return "", apperrors.Validationf("image must be an http(s) URL or a data URI")
	}

	_, raw, err := imaging.DecodeDataURI(value)
	if err != nil {
		return "", apperrors.Validationf("image: %v", err)
	}
	img, err := imaging.Normalize(raw)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			return "", apperrors.Validationf("image: %v", err)
		}
		return "", err
	}

	if s.store == nil {
		return imaging.EncodeDataURI(imaging.OutputMIME, img.Data), nil
	}
	url, err := s.store.Upload(ctx, folder, img.Data, imaging.OutputMIME)
	if err != nil {
		return "", apperrors.Store("upload image", err)
	}
	return url, nil
}

func (s *imageService) Discard(ctx context.Context, ref string) {
	if s.store == nil || !imaging.IsRemoteURL(ref) {
		return
	}
	if err := s.store.Delete(ctx, ref); err != nil {
		log.Warn().Err(err).Str("url", ref).Msg("could not delete unused image")
	}
}
