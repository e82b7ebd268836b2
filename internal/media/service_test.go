package media

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kivahq/kiva-backend/pkg/config"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

type stubSigner struct {
	lastBucket      string
	lastObject      string
	lastContentType string
	lastExpires     time.Duration
}

func (s *stubSigner) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	s.lastBucket = bucket
	s.lastObject = object
	s.lastContentType = contentType
	s.lastExpires = expires
	return "https://storage.googleapis.com/" + bucket + "/" + object + "?signed=1", nil
}

func (s *stubSigner) DefaultBucket() string { return "kiva-media" }

func TestPresignBuildsScopedObjectKey(t *testing.T) {
	t.Parallel()

	signer := &stubSigner{}
	svc, err := NewService(signer, config.GCSConfig{UploadURLExpiry: 10 * time.Minute})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	sellerID := uuid.New()
	dto, err := svc.Presign(context.Background(), sellerID, PresignRequest{
		ContentType: "image/png",
		Kind:        "product",
	})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	if !strings.HasPrefix(dto.ObjectKey, "product/"+sellerID.String()+"/") {
		t.Fatalf("object key %q not scoped to seller", dto.ObjectKey)
	}
	if !strings.HasSuffix(dto.ObjectKey, ".png") {
		t.Fatalf("object key %q missing extension", dto.ObjectKey)
	}
	if signer.lastBucket != "kiva-media" {
		t.Fatalf("unexpected bucket %q", signer.lastBucket)
	}
	if signer.lastContentType != "image/png" {
		t.Fatalf("unexpected content type %q", signer.lastContentType)
	}
	if signer.lastExpires != 10*time.Minute {
		t.Fatalf("unexpected expiry %v", signer.lastExpires)
	}
	if dto.UploadURL == "" {
		t.Fatal("expected signed url")
	}
}

func TestPresignRejectsUnsupportedContentType(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubSigner{}, config.GCSConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Presign(context.Background(), uuid.New(), PresignRequest{
		ContentType: "application/zip",
		Kind:        "product",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPresignRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubSigner{}, config.GCSConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Presign(context.Background(), uuid.New(), PresignRequest{
		ContentType: "video/mp4",
		Kind:        "avatar",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
