package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	"github.com/vizailabs/vizboost-backend/pkg/enums"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines balance reads and atomic credit adjustments.
type Service interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)
	Adjust(ctx context.Context, input AdjustInput) (int, error)
	Spend(ctx context.Context, userID uuid.UUID, amount int, description string) (int, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
}

// AdjustInput captures one balance mutation and its audit trail.
type AdjustInput struct {
	UserID      uuid.UUID
	Delta       int
	Description string
	OrderID     *uuid.UUID
}

type service struct {
	tx   txRunner
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return 0, err
	}
	return balance, nil
}

// Adjust applies the delta as one conditional update and appends the audit
// row in the same DB transaction. A refused spend reports the current
// balance so clients can render it.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (int, error) {
	if input.UserID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Delta == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	var newBalance int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.AdjustBalance(ctx, input.UserID, input.Delta)
		if err != nil {
			return err
		}
		if rows == 0 {
			balance, err := repo.GetBalance(ctx, input.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
				}
				return err
			}
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient credits").
				WithDetails(map[string]any{"balance": balance})
		}

		balance, err := repo.GetBalance(ctx, input.UserID)
		if err != nil {
			return err
		}
		newBalance = balance

		description := input.Description
		txn := &models.Transaction{
			OrderID:               input.OrderID,
			UserID:                &input.UserID,
			Provider:              enums.PaymentProviderInternal,
			ProviderTransactionID: uuid.NewString(),
			Status:                enums.TransactionStatusSuccess,
			AmountCents:           input.Delta,
			Description:           &description,
		}
		return repo.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *service) Spend(ctx context.Context, userID uuid.UUID, amount int, description string) (int, error) {
	if amount <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return s.Adjust(ctx, AdjustInput{
		UserID:      userID,
		Delta:       -amount,
		Description: description,
	})
}

func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.repo.ListTransactionsByUser(ctx, userID, limit)
}
