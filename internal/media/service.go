package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kivahq/kiva-backend/pkg/config"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

// allowedUploads maps the accepted content types to their object extension.
var allowedUploads = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

type PresignRequest struct {
	ContentType string `json:"content_type" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=product reel"`
}

// PresignDTO is everything the client needs for a direct-to-bucket upload.
type PresignDTO struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type urlSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	DefaultBucket() string
}

// Service issues signed upload URLs for seller media.
type Service interface {
	Presign(ctx context.Context, sellerID uuid.UUID, req PresignRequest) (*PresignDTO, error)
}

type service struct {
	signer urlSigner
	expiry time.Duration
}

// NewService constructs the media service.
func NewService(signer urlSigner, cfg config.GCSConfig) (Service, error) {
	if signer == nil {
		return nil, fmt.Errorf("url signer is required")
	}
	expiry := cfg.UploadURLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &service{signer: signer, expiry: expiry}, nil
}

func (s *service) Presign(_ context.Context, sellerID uuid.UUID, req PresignRequest) (*PresignDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	extension, ok := allowedUploads[contentType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported content type %q", req.ContentType))
	}

	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind != "product" && kind != "reel" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kind must be product or reel")
	}

	objectKey := path.Join(kind, sellerID.String(), uuid.NewString()+extension)
	uploadURL, err := s.signer.SignedURL(s.signer.DefaultBucket(), objectKey, contentType, s.expiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignDTO{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().UTC().Add(s.expiry),
	}, nil
}
