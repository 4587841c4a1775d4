package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/vizailabs/vizboost-backend/api/middleware"
	"github.com/vizailabs/vizboost-backend/api/responses"
	"github.com/vizailabs/vizboost-backend/api/validators"
	checkoutsvc "github.com/vizailabs/vizboost-backend/internal/checkout"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
	"github.com/vizailabs/vizboost-backend/pkg/logger"
)

type checkoutRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Checkout creates a pending order and a hosted payment session for it.
// Authenticated buyers get the order tied to their account; anonymous
// requests produce a guest order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var userID *uuid.UUID
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			userID = &parsed
		}

		result, err := svc.Execute(r.Context(), checkoutsvc.CheckoutInput{
			UserID:    userID,
			ProductID: payload.ProductID,
			Metadata:  payload.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
