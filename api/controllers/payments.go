package controllers

import (
	"io"
	"net/http"

	"github.com/kivahq/kiva-backend/api/responses"
	"github.com/kivahq/kiva-backend/api/validators"
	"github.com/kivahq/kiva-backend/internal/payments"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
	"github.com/kivahq/kiva-backend/pkg/logger"
)

const webhookSignatureHeader = "X-Webhook-Signature"

const webhookBodyLimit = 1 << 20

// Checkout registers the order with the payment gateway.
func Checkout(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req payments.InitiateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Initiate(ctx, userID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// PaymentConfirm applies the client-side payment callback.
func PaymentConfirm(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req payments.ConfirmRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Confirm(ctx, userID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// PaymentWebhook verifies the gateway signature over the raw body before
// any parsing happens.
func PaymentWebhook(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		signature := r.Header.Get(webhookSignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "missing webhook signature"))
			return
		}

		if err := svc.HandleWebhook(ctx, body, signature); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
