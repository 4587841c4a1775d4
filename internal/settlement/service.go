package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/vizailabs/vizboost-backend/internal/ledger"
	"github.com/vizailabs/vizboost-backend/internal/orders"
	"github.com/vizailabs/vizboost-backend/pkg/db"
	dbmodels "github.com/vizailabs/vizboost-backend/pkg/db/models"
	"github.com/vizailabs/vizboost-backend/pkg/enums"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
	"github.com/vizailabs/vizboost-backend/pkg/logger"
	"github.com/vizailabs/vizboost-backend/pkg/metrics"
)

const providerTxConstraint = "idx_transactions_provider_tx"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the settlement coordinator.
type ServiceParams struct {
	TransactionRunner txRunner
	LedgerRepo        ledger.Repository
	OrderService      orders.Service
	Metrics           *metrics.SettlementMetrics
	Logger            *logger.Logger
}

// Service settles paid checkout sessions exactly once. The unique constraint
// on transactions(provider, provider_transaction_id) is the authority; every
// other guard is an optimization on top of it.
type Service struct {
	txRunner   txRunner
	ledgerRepo ledger.Repository
	orderSvc   orders.Service
	metrics    *metrics.SettlementMetrics
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.LedgerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repo required")
	}
	if params.OrderService == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		txRunner:   params.TransactionRunner,
		ledgerRepo: params.LedgerRepo,
		orderSvc:   params.OrderService,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// HandleEvent routes verified Stripe events. Unrecognized types are accepted
// and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	start := time.Now()
	eventType := string(event.Type)

	var err error
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = s.handleCheckoutCompleted(ctx, event)
	case stripe.EventTypeCheckoutSessionExpired:
		err = s.handleCheckoutExpired(ctx, event)
	default:
		return nil
	}

	s.metrics.ObserveDuration(eventType, time.Since(start))
	if err != nil {
		s.metrics.IncFailed(eventType)
		return err
	}
	s.metrics.IncSettled(eventType)
	return nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
	}
	if session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}

	providerTxID := providerTransactionID(event, &session)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"stripe_session_id": session.ID,
		"provider_tx_id":    providerTxID,
		"stripe_event_id":   event.ID,
	})

	var settled *dbmodels.Order
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		ledgerRepo := s.ledgerRepo.WithTx(tx)
		orderSvc := s.orderSvc.WithTx(tx)

		txn := &dbmodels.Transaction{
			Provider:              enums.PaymentProviderStripe,
			ProviderTransactionID: providerTxID,
			Status:                enums.TransactionStatusSuccess,
			AmountCents:           int(session.AmountTotal),
			RawResponse:           event.Data.Raw,
		}
		if ref := parseOrderRef(session.ClientReferenceID); ref != nil {
			txn.OrderID = ref
		}

		order, err := orderSvc.GetBySessionID(ctx, session.ID)
		switch {
		case pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
			// record the money either way; reconciliation picks it up
			s.logg.Warn(ctx, "settlement for unknown checkout session")
			order = nil
		case err != nil:
			return err
		default:
			txn.OrderID = &order.ID
			txn.UserID = order.UserID
		}

		if err := ledgerRepo.CreateTransaction(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, providerTxConstraint) {
				return errDuplicateEvent
			}
			return err
		}

		if order == nil {
			return nil
		}

		if _, err := orderSvc.MarkPaid(ctx, order.ID); err != nil {
			return err
		}
		settled = order
		return nil
	})
	if errors.Is(err, errDuplicateEvent) {
		s.metrics.IncDuplicate(string(event.Type))
		s.logg.Info(ctx, "duplicate settlement event skipped")
		return nil
	}
	if err != nil {
		return err
	}
	if settled == nil {
		return nil
	}

	// Payment is durably recorded at this point. Fulfillment failure is
	// acknowledged, logged, and left to reconciliation rather than bounced
	// back to Stripe as a retryable error.
	if err := s.fulfill(ctx, settled); err != nil {
		s.metrics.IncFulfillmentFailure(string(settled.ProductType))
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"order_id":     settled.ID.String(),
			"product_type": string(settled.ProductType),
			"amount_cents": settled.TotalAmountCents,
			"credits":      settled.Credits,
		}), "fulfillment failed, order left paid for reconciliation", err)
	}
	return nil
}

func (s *Service) handleCheckoutExpired(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
	}
	if session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}

	order, err := s.orderSvc.GetBySessionID(ctx, session.ID)
	if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.orderSvc.MarkFailed(ctx, order.ID); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			// already settled, the expiry lost the race
			return nil
		}
		return err
	}
	return nil
}

var errDuplicateEvent = pkgerrors.New(pkgerrors.CodeDuplicateEvent, "event already settled")

func providerTransactionID(event *stripe.Event, session *stripe.CheckoutSession) string {
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		return session.PaymentIntent.ID
	}
	return event.ID
}

func parseOrderRef(ref string) *uuid.UUID {
	if ref == "" {
		return nil
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil
	}
	return &id
}

// fulfill dispatches on product type. Credit packs grant their snapshot
// credits; service products are marked fulfilled and handed to the humans.
func (s *Service) fulfill(ctx context.Context, order *dbmodels.Order) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		ledgerRepo := s.ledgerRepo.WithTx(tx)
		orderSvc := s.orderSvc.WithTx(tx)

		switch order.ProductType {
		case enums.ProductTypeCreditPack:
			if order.UserID == nil {
				return fmt.Errorf("credit pack order %s has no user to credit", order.ID)
			}
			if order.Credits > 0 {
				rows, err := ledgerRepo.AdjustBalance(ctx, *order.UserID, order.Credits)
				if err != nil {
					return err
				}
				if rows == 0 {
					return fmt.Errorf("user %s not found for credit grant", order.UserID)
				}
			}
		case enums.ProductTypeBrandingService, enums.ProductTypeSubscription:
			s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "service ticket opened for fulfillment team")
		default:
			return fmt.Errorf("no fulfillment strategy for product type %q", order.ProductType)
		}

		_, err := orderSvc.MarkFulfilled(ctx, order.ID)
		return err
	})
}
