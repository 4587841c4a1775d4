package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vizailabs/vizboost-backend/pkg/enums"
)

// Order is a purchase intent. UserID is nil for guest checkouts. Status moves
// pending -> paid -> fulfilled through status-guarded updates only; failed is
// reachable from pending. TotalAmountCents and Credits are snapshots taken at
// creation time, never re-read from the catalog.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	ProductID        string            `gorm:"column:product_id;type:text;not null"`
	ProductType      enums.ProductType `gorm:"column:product_type;type:product_type_enum;not null"`
	TotalAmountCents int               `gorm:"column:total_amount_cents;not null"`
	Credits          int               `gorm:"column:credits;not null;default:0"`
	Status           enums.OrderStatus `gorm:"column:status;type:order_status_enum;not null;default:'pending'"`
	StripeSessionID  *string           `gorm:"column:stripe_session_id;uniqueIndex"`
	Metadata         json.RawMessage   `gorm:"column:metadata;type:jsonb"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
