package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	"github.com/vizailabs/vizboost-backend/pkg/enums"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepository struct {
	adjustFn  func(ctx context.Context, userID uuid.UUID, delta int) (int64, error)
	balanceFn func(ctx context.Context, userID uuid.UUID) (int, error)
	createFn  func(ctx context.Context, txn *models.Transaction) error
	listFn    func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) AdjustBalance(ctx context.Context, userID uuid.UUID, delta int) (int64, error) {
	if f.adjustFn != nil {
		return f.adjustFn(ctx, userID, delta)
	}
	return 1, nil
}

func (f *fakeRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	if f.balanceFn != nil {
		return f.balanceFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeRepository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if f.createFn != nil {
		return f.createFn(ctx, txn)
	}
	return nil
}

func (f *fakeRepository) ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID, limit)
	}
	return nil, nil
}

func TestService_AdjustRecordsAuditRow(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(fakeTxRunner{}, repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	userID := uuid.New()
	repo.balanceFn = func(ctx context.Context, id uuid.UUID) (int, error) {
		return 25, nil
	}

	var created *models.Transaction
	repo.createFn = func(ctx context.Context, txn *models.Transaction) error {
		created = txn
		return nil
	}

	balance, err := svc.Adjust(context.Background(), AdjustInput{
		UserID:      userID,
		Delta:       10,
		Description: "admin grant",
	})
	if err != nil {
		t.Fatalf("Adjust error: %v", err)
	}
	if balance != 25 {
		t.Fatalf("expected balance 25, got %d", balance)
	}
	if created == nil {
		t.Fatal("expected audit transaction to be created")
	}
	if created.Provider != enums.PaymentProviderInternal {
		t.Fatalf("expected internal provider, got %s", created.Provider)
	}
	if created.Status != enums.TransactionStatusSuccess {
		t.Fatalf("expected success status, got %s", created.Status)
	}
	if created.AmountCents != 10 {
		t.Fatalf("expected amount 10, got %d", created.AmountCents)
	}
	if created.UserID == nil || *created.UserID != userID {
		t.Fatalf("expected user id %s, got %v", userID, created.UserID)
	}
	if created.ProviderTransactionID == "" {
		t.Fatal("expected generated provider transaction id")
	}
	if created.Description == nil || *created.Description != "admin grant" {
		t.Fatalf("unexpected description: %v", created.Description)
	}
}

func TestService_AdjustInsufficientFundsCarriesBalance(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(fakeTxRunner{}, repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	repo.adjustFn = func(ctx context.Context, userID uuid.UUID, delta int) (int64, error) {
		return 0, nil
	}
	repo.balanceFn = func(ctx context.Context, userID uuid.UUID) (int, error) {
		return 2, nil
	}
	repo.createFn = func(ctx context.Context, txn *models.Transaction) error {
		t.Fatal("no audit row should be written on refusal")
		return nil
	}

	_, err = svc.Spend(context.Background(), uuid.New(), 5, "render")
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["balance"] != 2 {
		t.Fatalf("expected balance detail 2, got %v", details["balance"])
	}
}

func TestService_AdjustUnknownUser(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(fakeTxRunner{}, repo)

	repo.adjustFn = func(ctx context.Context, userID uuid.UUID, delta int) (int64, error) {
		return 0, nil
	}
	repo.balanceFn = func(ctx context.Context, userID uuid.UUID) (int, error) {
		return 0, gorm.ErrRecordNotFound
	}

	_, err := svc.Adjust(context.Background(), AdjustInput{UserID: uuid.New(), Delta: -1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestService_AdjustValidation(t *testing.T) {
	svc, _ := NewService(fakeTxRunner{}, &fakeRepository{})

	if _, err := svc.Adjust(context.Background(), AdjustInput{Delta: 1}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for missing user, got %v", err)
	}
	if _, err := svc.Adjust(context.Background(), AdjustInput{UserID: uuid.New()}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for zero delta, got %v", err)
	}
	if _, err := svc.Spend(context.Background(), uuid.New(), 0, "noop"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for non-positive amount, got %v", err)
	}
}

func TestService_SpendNegatesAmount(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(fakeTxRunner{}, repo)

	var gotDelta int
	repo.adjustFn = func(ctx context.Context, userID uuid.UUID, delta int) (int64, error) {
		gotDelta = delta
		return 1, nil
	}
	repo.balanceFn = func(ctx context.Context, userID uuid.UUID) (int, error) {
		return 14, nil
	}

	balance, err := svc.Spend(context.Background(), uuid.New(), 1, "studio render")
	if err != nil {
		t.Fatalf("Spend error: %v", err)
	}
	if gotDelta != -1 {
		t.Fatalf("expected delta -1, got %d", gotDelta)
	}
	if balance != 14 {
		t.Fatalf("expected balance 14, got %d", balance)
	}
}

func TestService_GetBalancePropagatesRepoError(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(fakeTxRunner{}, repo)

	boom := errors.New("connection reset")
	repo.balanceFn = func(ctx context.Context, userID uuid.UUID) (int, error) {
		return 0, boom
	}

	if _, err := svc.GetBalance(context.Background(), uuid.New()); !errors.Is(err, boom) {
		t.Fatalf("expected repo error, got %v", err)
	}
}
