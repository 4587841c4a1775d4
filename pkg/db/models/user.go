package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vizailabs/vizboost-backend/pkg/enums"
)

// User represents the canonical identity entity plus its credit wallet. The
// credits column is only ever mutated through the ledger's conditional update.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FirstName    string         `gorm:"column:first_name;not null"`
	LastName     string         `gorm:"column:last_name;not null"`
	Role         enums.UserRole `gorm:"column:role;type:user_role_enum;not null;default:'user'"`
	Credits      int            `gorm:"column:credits;not null;default:15"`
	PlanTier     string         `gorm:"column:plan_tier;not null;default:'free'"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
