package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kivahq/kiva-backend/api/responses"
	"github.com/kivahq/kiva-backend/internal/sellers"
	"github.com/kivahq/kiva-backend/pkg/logger"
)

func AdminSellerList(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page, err := svc.List(ctx, sellers.ListParams{
			Cursor: queryCursor(r),
			Limit:  queryLimit(r),
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminSellerApprove(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return adminSellerTransition(svc.Approve, logg)
}

func AdminSellerReject(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return adminSellerTransition(svc.Reject, logg)
}

func AdminSellerSuspend(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return adminSellerTransition(svc.Suspend, logg)
}

func AdminSellerReset(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return adminSellerTransition(svc.Reset, logg)
}

func adminSellerTransition(
	apply func(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*sellers.SellerProfileDTO, error),
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sellerProfileID, err := pathUUID(r, "sellerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := apply(ctx, adminID, sellerProfileID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
