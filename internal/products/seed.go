package products

import (
	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	"github.com/vizailabs/vizboost-backend/pkg/enums"
)

func strptr(s string) *string { return &s }

// DefaultCatalog returns the seed fixtures for a fresh environment. Rows are
// keyed by stable ids so re-running the seed updates in place instead of
// duplicating.
func DefaultCatalog() []models.Product {
	return []models.Product{
		{
			ID:          "ai-single",
			Name:        "Single AI Visualization",
			Description: strptr("One studio-quality AI product render."),
			PriceCents:  499,
			Type:        enums.ProductTypeCreditPack,
			Credits:     1,
			Active:      true,
		},
		{
			ID:          "ai-pack-25",
			Name:        "AI Render Pack (25)",
			Description: strptr("Twenty-five render credits at a volume discount."),
			PriceCents:  8900,
			Type:        enums.ProductTypeCreditPack,
			Credits:     25,
			Active:      true,
		},
		{
			ID:          "brand-polish",
			Name:        "Brand Polish",
			Description: strptr("A one-time visual refresh of your product line."),
			PriceCents:  9900,
			Type:        enums.ProductTypeBrandingService,
			Credits:     0,
			Active:      true,
		},
		{
			ID:          "brand-subscription",
			Name:        "Brand Subscription",
			Description: strptr("Monthly branding support and priority rendering."),
			PriceCents:  29900,
			Type:        enums.ProductTypeSubscription,
			Credits:     0,
			Active:      true,
		},
		{
			ID:          "enterprise-campaign",
			Name:        "Enterprise Campaign",
			Description: strptr("Full campaign asset production for enterprise teams."),
			PriceCents:  249900,
			Type:        enums.ProductTypeBrandingService,
			Credits:     0,
			Active:      true,
		},
	}
}
