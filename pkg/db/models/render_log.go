package models

import (
	"time"

	"github.com/google/uuid"
)

// RenderLog records each studio render for admin review and billing audits.
type RenderLog struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ProductName string    `gorm:"column:product_name;not null"`
	Prompt      string    `gorm:"column:prompt;not null"`
	Style       string    `gorm:"column:style;not null"`
	ImageURL    string    `gorm:"column:image_url;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
