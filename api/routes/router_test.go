package routes

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	checkoutsvc "github.com/vizailabs/vizboost-backend/internal/checkout"
	"github.com/vizailabs/vizboost-backend/pkg/config"
	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	"github.com/vizailabs/vizboost-backend/pkg/enums"
)

type stubProducts struct{}

func (stubProducts) GetForCheckout(ctx context.Context, id string) (*models.Product, error) {
	return nil, nil
}

func (stubProducts) ListActive(ctx context.Context) ([]models.Product, error) {
	return []models.Product{
		{ID: "credits_50", Name: "50 Credits", PriceCents: 1900, Type: enums.ProductTypeCreditPack, Credits: 50, Active: true},
	}, nil
}

func (stubProducts) Seed(ctx context.Context, fixtures []models.Product) error {
	return nil
}

type stubCheckout struct{}

func (stubCheckout) Execute(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
	return &checkoutsvc.CheckoutResult{
		OrderID:   uuid.New(),
		SessionID: "cs_test",
		URL:       "https://checkout.stripe.com/pay/cs_test",
	}, nil
}

func testRouter() http.Handler {
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10},
	}
	return NewRouter(Deps{
		Config:          cfg,
		ProductService:  stubProducts{},
		CheckoutService: stubCheckout{},
	})
}

func TestRouterHealthLive(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestRouterProductsArePublic(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouterGuestCheckout(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(`{"product_id":"credits_50"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouterWalletRequiresAuth(t *testing.T) {
	router := testRouter()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/wallet"},
		{http.MethodPost, "/api/v1/wallet/spend"},
		{http.MethodGet, "/api/v1/wallet/transactions"},
		{http.MethodPost, "/api/v1/studio/render"},
		{http.MethodGet, "/api/v1/studio/renders"},
		{http.MethodGet, "/api/v1/admin/stats"},
		{http.MethodGet, "/api/v1/admin/users"},
		{http.MethodGet, "/api/v1/admin/orders"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
