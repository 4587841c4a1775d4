package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vizailabs/vizboost-backend/api/responses"
	"github.com/vizailabs/vizboost-backend/api/validators"
	"github.com/vizailabs/vizboost-backend/internal/studio"
	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
	"github.com/vizailabs/vizboost-backend/pkg/logger"
)

type renderRequest struct {
	ImageURL    string `json:"image_url" validate:"required,url"`
	Style       string `json:"style" validate:"required"`
	ProductName string `json:"product_name" validate:"required"`
	Prompt      string `json:"prompt,omitempty"`
}

type renderLogDTO struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ProductName string    `json:"product_name"`
	Prompt      string    `json:"prompt,omitempty"`
	Style       string    `json:"style"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func toRenderLogDTO(entry models.RenderLog) renderLogDTO {
	return renderLogDTO{
		ID:          entry.ID,
		UserID:      entry.UserID,
		ProductName: entry.ProductName,
		Prompt:      entry.Prompt,
		Style:       entry.Style,
		ImageURL:    entry.ImageURL,
		CreatedAt:   entry.CreatedAt,
	}
}

// StudioRender charges credits and produces a styled product image.
func StudioRender(svc studio.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "studio service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body renderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Render(r.Context(), studio.RenderInput{
			UserID:      userID,
			ImageURL:    body.ImageURL,
			Style:       body.Style,
			ProductName: body.ProductName,
			Prompt:      body.Prompt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// StudioRenders lists the caller's render history, newest first.
func StudioRenders(svc studio.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "studio service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListRenders(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]renderLogDTO, 0, len(entries))
		for _, entry := range entries {
			dtos = append(dtos, toRenderLogDTO(entry))
		}

		responses.WriteSuccess(w, map[string]any{"renders": dtos})
	}
}
