package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vizailabs/vizboost-backend/pkg/enums"
)

// Transaction is the write-once audit record of a settlement attempt. The
// composite unique index on (provider, provider_transaction_id) is the
// idempotency key that makes webhook redelivery safe; it must hold at the
// schema layer, not just in handler code.
type Transaction struct {
	ID                    uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               *uuid.UUID              `gorm:"column:order_id;type:uuid;index"`
	UserID                *uuid.UUID              `gorm:"column:user_id;type:uuid;index"`
	Provider              enums.PaymentProvider   `gorm:"column:provider;type:text;not null;uniqueIndex:idx_transactions_provider_tx"`
	ProviderTransactionID string                  `gorm:"column:provider_transaction_id;not null;uniqueIndex:idx_transactions_provider_tx"`
	Status                enums.TransactionStatus `gorm:"column:status;type:transaction_status_enum;not null"`
	AmountCents           int                     `gorm:"column:amount_cents;not null"`
	Description           *string                 `gorm:"column:description"`
	RawResponse           json.RawMessage         `gorm:"column:raw_response;type:jsonb"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
}
