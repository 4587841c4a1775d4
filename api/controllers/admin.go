package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vizailabs/vizboost-backend/api/responses"
	"github.com/vizailabs/vizboost-backend/api/validators"
	"github.com/vizailabs/vizboost-backend/internal/ledger"
	"github.com/vizailabs/vizboost-backend/internal/studio"
	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	"github.com/vizailabs/vizboost-backend/pkg/enums"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
	"github.com/vizailabs/vizboost-backend/pkg/logger"
)

type userCounter interface {
	Count(ctx context.Context) (int64, error)
}

type userLister interface {
	List(ctx context.Context, limit int) ([]models.User, error)
}

type roleUpdater interface {
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.UserRole) (*models.User, error)
}

type orderStatsSource interface {
	CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error)
	RevenueCents(ctx context.Context) (int64, error)
}

type orderLister interface {
	List(ctx context.Context, limit int) ([]models.Order, error)
}

type adminUserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Role        enums.UserRole `json:"role"`
	Credits     int            `json:"credits"`
	PlanTier    string         `json:"plan_tier"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toAdminUserDTO(u models.User) adminUserDTO {
	return adminUserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		Credits:     u.Credits,
		PlanTier:    u.PlanTier,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

type adminOrderDTO struct {
	ID               uuid.UUID         `json:"id"`
	UserID           *uuid.UUID        `json:"user_id,omitempty"`
	ProductID        string            `json:"product_id"`
	TotalAmountCents int               `json:"total_amount_cents"`
	Credits          int               `json:"credits"`
	Status           enums.OrderStatus `json:"status"`
	StripeSessionID  *string           `json:"stripe_session_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

func toAdminOrderDTO(o models.Order) adminOrderDTO {
	return adminOrderDTO{
		ID:               o.ID,
		UserID:           o.UserID,
		ProductID:        o.ProductID,
		TotalAmountCents: o.TotalAmountCents,
		Credits:          o.Credits,
		Status:           o.Status,
		StripeSessionID:  o.StripeSessionID,
		CreatedAt:        o.CreatedAt,
	}
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type adminStatsResponse struct {
	Users        int64            `json:"users"`
	Orders       map[string]int64 `json:"orders"`
	RevenueCents int64            `json:"revenue_cents"`
	Renders      int64            `json:"renders"`
}

type grantCreditsRequest struct {
	Credits     int    `json:"credits" validate:"required,gt=0"`
	Description string `json:"description,omitempty"`
}

// AdminStats aggregates user, order, revenue, and render counts for the
// back office dashboard.
func AdminStats(users userCounter, orders orderStatsSource, studioSvc studio.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if users == nil || orders == nil || studioSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin stats unavailable"))
			return
		}

		userCount, err := users.Count(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderCounts := map[string]int64{}
		for _, status := range []enums.OrderStatus{
			enums.OrderStatusPending,
			enums.OrderStatusPaid,
			enums.OrderStatusFulfilled,
			enums.OrderStatusFailed,
		} {
			count, err := orders.CountByStatus(r.Context(), status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			orderCounts[status.String()] = count
		}

		revenue, err := orders.RevenueCents(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renders, err := studioSvc.CountRenders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, adminStatsResponse{
			Users:        userCount,
			Orders:       orderCounts,
			RevenueCents: revenue,
			Renders:      renders,
		})
	}
}

// AdminUsers lists the newest accounts for the back office.
func AdminUsers(users userLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if users == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accounts, err := users.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]adminUserDTO, 0, len(accounts))
		for _, account := range accounts {
			dtos = append(dtos, toAdminUserDTO(account))
		}

		responses.WriteSuccess(w, map[string]any{"users": dtos})
	}
}

// AdminOrders lists recent orders across all users.
func AdminOrders(orders orderLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orders == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := orders.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]adminOrderDTO, 0, len(entries))
		for _, entry := range entries {
			dtos = append(dtos, toAdminOrderDTO(entry))
		}

		responses.WriteSuccess(w, map[string]any{"orders": dtos})
	}
}

// AdminUpdateRole promotes or demotes a user.
func AdminUpdateRole(users roleUpdater, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if users == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user repository unavailable"))
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var body updateRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		updated, err := users.UpdateRole(r.Context(), userID, role)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAdminUserDTO(*updated))
	}
}

// AdminGrantCredits credits a user's wallet out of band, with an audit entry.
func AdminGrantCredits(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var body grantCreditsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		description := body.Description
		if description == "" {
			description = "admin credit grant"
		}

		balance, err := svc.Adjust(r.Context(), ledger.AdjustInput{
			UserID:      userID,
			Delta:       body.Credits,
			Description: description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"credits": balance})
	}
}

// AdminRenders lists recent renders across all users.
func AdminRenders(svc studio.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "studio service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListAllRenders(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]renderLogDTO, 0, len(entries))
		for _, entry := range entries {
			dtos = append(dtos, toRenderLogDTO(entry))
		}

		responses.WriteSuccess(w, map[string]any{"renders": dtos})
	}
}
