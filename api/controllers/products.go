package controllers

import (
	"net/http"

	"github.com/vizailabs/vizboost-backend/api/responses"
	"github.com/vizailabs/vizboost-backend/internal/products"
	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
	"github.com/vizailabs/vizboost-backend/pkg/logger"
)

type productDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	PriceCents  int     `json:"price_cents"`
	Type        string  `json:"type"`
	Credits     int     `json:"credits"`
}

func toProductDTO(p models.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Type:        string(p.Type),
		Credits:     p.Credits,
	}
}

// ListProducts returns the purchasable catalog.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]productDTO, 0, len(items))
		for _, item := range items {
			dtos = append(dtos, toProductDTO(item))
		}

		responses.WriteSuccess(w, map[string]any{"products": dtos})
	}
}
