package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	"github.com/vizailabs/vizboost-backend/pkg/enums"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
)

// Service manages the order lifecycle: creation with price snapshots and the
// status-guarded transitions pending -> paid -> fulfilled (failed from
// pending only).
type Service interface {
	WithTx(tx *gorm.DB) Service
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	AttachSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	MarkFulfilled(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	MarkFailed(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error)
}

// CreateOrderInput captures a purchase intent. UserID stays nil for guest
// checkouts.
type CreateOrderInput struct {
	UserID   *uuid.UUID
	Product  *models.Product
	Metadata json.RawMessage
}

type service struct {
	repo Repository
}

// NewService wires an orders service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// WithTx rebinds the service to a transaction-scoped repository so callers
// can compose order transitions with other writes.
func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	if !input.Product.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product type %q", input.Product.Type))
	}
	if input.UserID != nil && *input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id must not be the zero uuid")
	}

	order := &models.Order{
		UserID:           input.UserID,
		ProductID:        input.Product.ID,
		ProductType:      input.Product.Type,
		TotalAmountCents: input.Product.PriceCents,
		Credits:          input.Product.Credits,
		Status:           enums.OrderStatusPending,
		Metadata:         input.Metadata,
	}
	return s.repo.Create(ctx, order)
}

func (s *service) AttachSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return s.repo.AttachSession(ctx, orderID, sessionID)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	order, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusPaid,
		// paid and fulfilled both mean the money already landed
		enums.OrderStatusPaid, enums.OrderStatusFulfilled)
}

func (s *service) MarkFulfilled(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, enums.OrderStatusPaid, enums.OrderStatusFulfilled,
		enums.OrderStatusFulfilled)
}

func (s *service) MarkFailed(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusFailed,
		enums.OrderStatusFailed)
}

// transition applies a status-guarded update. When the guard misses, already
// being in an acceptable terminal state is treated as success so retried
// webhooks stay idempotent; any other state is a conflict.
func (s *service) transition(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, acceptable ...enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	rows, err := s.repo.UpdateStatus(ctx, orderID, from, to)
	if err != nil {
		return nil, err
	}

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if rows > 0 {
		return order, nil
	}

	for _, status := range acceptable {
		if order.Status == status {
			return order, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("order is %s, cannot move %s -> %s", order.Status, from, to))
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.repo.ListByUser(ctx, userID, limit)
}
