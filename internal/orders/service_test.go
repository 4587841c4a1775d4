package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	"github.com/vizailabs/vizboost-backend/pkg/enums"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
)

type fakeRepository struct {
	createFn       func(ctx context.Context, order *models.Order) (*models.Order, error)
	findFn         func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	findSessionFn  func(ctx context.Context, sessionID string) (*models.Order, error)
	attachFn       func(ctx context.Context, orderID uuid.UUID, sessionID string) error
	updateStatusFn func(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if f.createFn != nil {
		return f.createFn(ctx, order)
	}
	return order, nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	if f.findSessionFn != nil {
		return f.findSessionFn(ctx, sessionID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) AttachSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	if f.attachFn != nil {
		return f.attachFn(ctx, orderID, sessionID)
	}
	return nil
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, orderID, from, to)
	}
	return 1, nil
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeRepository) List(ctx context.Context, limit int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeRepository) CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) RevenueCents(ctx context.Context) (int64, error) {
	return 0, nil
}

func creditPackProduct() *models.Product {
	return &models.Product{
		ID:         "ai-single",
		Name:       "Single AI Visualization",
		PriceCents: 499,
		Type:       enums.ProductTypeCreditPack,
		Credits:    1,
		Active:     true,
	}
}

func TestCreateSnapshotsPriceAndCredits(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.Order
	repo.createFn = func(ctx context.Context, order *models.Order) (*models.Order, error) {
		created = order
		return order, nil
	}

	userID := uuid.New()
	order, err := svc.Create(context.Background(), CreateOrderInput{
		UserID:  &userID,
		Product: creditPackProduct(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created == nil {
		t.Fatal("expected order to be created")
	}
	if order.TotalAmountCents != 499 || order.Credits != 1 {
		t.Fatalf("snapshot mismatch: %+v", order)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.ProductID != "ai-single" || order.ProductType != enums.ProductTypeCreditPack {
		t.Fatalf("product snapshot mismatch: %+v", order)
	}
}

func TestCreateGuestOrderHasNilUser(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	order, err := svc.Create(context.Background(), CreateOrderInput{Product: creditPackProduct()})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if order.UserID != nil {
		t.Fatalf("expected nil user for guest checkout, got %v", order.UserID)
	}
}

func TestCreateRequiresProduct(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	_, err := svc.Create(context.Background(), CreateOrderInput{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestMarkPaidTransitionsPendingOrder(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	orderID := uuid.New()
	repo.updateStatusFn = func(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
		if from != enums.OrderStatusPending || to != enums.OrderStatusPaid {
			t.Fatalf("unexpected transition %s -> %s", from, to)
		}
		return 1, nil
	}
	repo.findFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return &models.Order{ID: id, Status: enums.OrderStatusPaid}, nil
	}

	order, err := svc.MarkPaid(context.Background(), orderID)
	if err != nil {
		t.Fatalf("MarkPaid error: %v", err)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", order.Status)
	}
}

func TestMarkPaidAlreadyPaidIsIdempotent(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	repo.updateStatusFn = func(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
		return 0, nil
	}
	repo.findFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return &models.Order{ID: id, Status: enums.OrderStatusFulfilled}, nil
	}

	order, err := svc.MarkPaid(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected idempotent success, got %v", err)
	}
	if order.Status != enums.OrderStatusFulfilled {
		t.Fatalf("expected order returned unchanged, got %s", order.Status)
	}
}

func TestMarkPaidFailedOrderIsConflict(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	repo.updateStatusFn = func(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
		return 0, nil
	}
	repo.findFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return &models.Order{ID: id, Status: enums.OrderStatusFailed}, nil
	}

	_, err := svc.MarkPaid(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestMarkFulfilledRequiresPaid(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	repo.updateStatusFn = func(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
		if from != enums.OrderStatusPaid || to != enums.OrderStatusFulfilled {
			t.Fatalf("unexpected transition %s -> %s", from, to)
		}
		return 0, nil
	}
	repo.findFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return &models.Order{ID: id, Status: enums.OrderStatusPending}, nil
	}

	_, err := svc.MarkFulfilled(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestMarkFailedUnknownOrder(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	repo.updateStatusFn = func(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
		return 0, nil
	}

	_, err := svc.MarkFailed(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestGetBySessionIDRequiresValue(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	_, err := svc.GetBySessionID(context.Background(), "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
