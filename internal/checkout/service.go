package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/vizailabs/vizboost-backend/internal/orders"
	"github.com/vizailabs/vizboost-backend/internal/products"
	"github.com/vizailabs/vizboost-backend/pkg/config"
	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
	"github.com/vizailabs/vizboost-backend/pkg/logger"
)

// Service turns a product selection into a pending order plus a hosted
// payment session.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

// CheckoutInput captures a purchase request. UserID stays nil for guests.
type CheckoutInput struct {
	UserID    *uuid.UUID
	ProductID string
	Metadata  json.RawMessage
}

// CheckoutResult is what the client needs to continue payment.
type CheckoutResult struct {
	OrderID   uuid.UUID `json:"order_id"`
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
}

type service struct {
	productSvc products.Service
	orderSvc   orders.Service
	stripe     StripeSessionClient
	cfg        config.CheckoutConfig
	logg       *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	productSvc products.Service,
	orderSvc orders.Service,
	stripeClient StripeSessionClient,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if productSvc == nil {
		return nil, fmt.Errorf("products service required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		productSvc: productSvc,
		orderSvc:   orderSvc,
		stripe:     stripeClient,
		cfg:        cfg,
		logg:       logg,
	}, nil
}

func (s *service) Execute(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	product, err := s.productSvc.GetForCheckout(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	order, err := s.orderSvc.Create(ctx, orders.CreateOrderInput{
		UserID:   input.UserID,
		Product:  product,
		Metadata: input.Metadata,
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	sessionCtx := ctx
	if s.cfg.SessionTimeout > 0 {
		var cancel context.CancelFunc
		sessionCtx, cancel = context.WithTimeout(ctx, s.cfg.SessionTimeout)
		defer cancel()
	}

	params := s.sessionParams(order.ID, product)
	checkoutSession, err := s.stripe.CreateSession(sessionCtx, params)
	if err != nil {
		// the order is unpaid either way; park it as failed so it never settles
		if _, failErr := s.orderSvc.MarkFailed(ctx, order.ID); failErr != nil {
			s.logg.Error(ctx, "marking order failed after session error", failErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment session")
	}

	if err := s.orderSvc.AttachSession(ctx, order.ID, checkoutSession.ID); err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "checkout session created")

	return &CheckoutResult{
		OrderID:   order.ID,
		SessionID: checkoutSession.ID,
		URL:       checkoutSession.URL,
	}, nil
}

func (s *service) sessionParams(orderID uuid.UUID, product *models.Product) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(orderID.String()),
		SuccessURL:        stripe.String(s.cfg.BaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.cfg.BaseURL + "/checkout/cancel"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(int64(product.PriceCents)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(product.Name),
					},
				},
			},
		},
	}
	params.AddMetadata("order_id", orderID.String())
	params.AddMetadata("product_id", product.ID)
	params.AddMetadata("credits", strconv.Itoa(product.Credits))
	return params
}
