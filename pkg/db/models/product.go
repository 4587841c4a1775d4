package models

import (
	"time"

	"github.com/vizailabs/vizboost-backend/pkg/enums"
)

// Product is a purchasable offering. Rows are keyed by a stable string id
// ("ai-single", "credit-pack-50") so seed data stays idempotent. Price is
// snapshotted onto the order at checkout time; later catalog edits never
// change what an open order is worth.
type Product struct {
	ID          string            `gorm:"column:id;type:text;primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	Description *string           `gorm:"column:description"`
	PriceCents  int               `gorm:"column:price_cents;not null"`
	Type        enums.ProductType `gorm:"column:type;type:product_type_enum;not null"`
	Credits     int               `gorm:"column:credits;not null;default:0"`
	Active      bool              `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
