package controllers

import (
	"net/http"

	"github.com/kivahq/kiva-backend/api/responses"
	"github.com/kivahq/kiva-backend/api/validators"
	"github.com/kivahq/kiva-backend/internal/media"
	"github.com/kivahq/kiva-backend/pkg/logger"
)

// MediaPresign hands sellers a signed upload URL for product or reel media.
func MediaPresign(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req media.PresignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Presign(ctx, sellerID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
