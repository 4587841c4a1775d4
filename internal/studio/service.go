package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vizailabs/vizboost-backend/internal/ledger"
	"github.com/vizailabs/vizboost-backend/pkg/config"
	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
	"github.com/vizailabs/vizboost-backend/pkg/logger"
	"github.com/vizailabs/vizboost-backend/pkg/renderapi"
)

type ledgerService interface {
	Spend(ctx context.Context, userID uuid.UUID, amount int, description string) (int, error)
	Adjust(ctx context.Context, input ledger.AdjustInput) (int, error)
}

// Provider produces a styled image for the submitted source image.
type Provider interface {
	Render(ctx context.Context, req renderapi.RenderRequest) (*renderapi.RenderResult, error)
}

// RenderInput carries a user's render request into the studio.
type RenderInput struct {
	UserID      uuid.UUID
	ImageURL    string
	Style       string
	ProductName string
	Prompt      string
}

// RenderOutput is returned after a successful render.
type RenderOutput struct {
	RenderID uuid.UUID `json:"render_id"`
	ImageURL string    `json:"image_url"`
	Credits  int       `json:"credits"`
}

// Service runs studio renders and exposes the render log.
type Service interface {
	Render(ctx context.Context, input RenderInput) (*RenderOutput, error)
	ListRenders(ctx context.Context, userID uuid.UUID, limit int) ([]models.RenderLog, error)
	ListAllRenders(ctx context.Context, limit int) ([]models.RenderLog, error)
	CountRenders(ctx context.Context) (int64, error)
}

// ServiceParams bundles the studio service dependencies.
type ServiceParams struct {
	Ledger   ledgerService
	Provider Provider
	Repo     Repository
	Config   config.StudioConfig
	Logger   *logger.Logger
}

type service struct {
	ledger   ledgerService
	provider Provider
	repo     Repository
	cfg      config.StudioConfig
	logg     *logger.Logger
}

// NewService wires the studio render service.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("render provider required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("render log repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Config.RenderCost <= 0 {
		params.Config.RenderCost = 1
	}
	return &service{
		ledger:   params.Ledger,
		provider: params.Provider,
		repo:     params.Repo,
		cfg:      params.Config,
		logg:     params.Logger,
	}, nil
}

// Render charges the render cost up front, calls the provider, and records
// the render log. A provider failure refunds the charge.
func (s *service) Render(ctx context.Context, input RenderInput) (*RenderOutput, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	input.Style = strings.TrimSpace(input.Style)
	input.ProductName = strings.TrimSpace(input.ProductName)
	if input.ImageURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image_url required")
	}
	if input.Style == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "style required")
	}
	if input.ProductName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_name required")
	}

	balance, err := s.ledger.Spend(ctx, input.UserID, s.cfg.RenderCost, "studio render")
	if err != nil {
		return nil, err
	}

	providerCtx := ctx
	if s.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		providerCtx, cancel = context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()
	}

	result, err := s.provider.Render(providerCtx, renderapi.RenderRequest{
		ImageURL:    input.ImageURL,
		Style:       input.Style,
		ProductName: input.ProductName,
		Prompt:      input.Prompt,
	})
	if err != nil {
		balance = s.refund(ctx, input.UserID, balance)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "render provider failed")
	}

	entry := &models.RenderLog{
		ID:          uuid.New(),
		UserID:      input.UserID,
		ProductName: input.ProductName,
		Prompt:      input.Prompt,
		Style:       input.Style,
		ImageURL:    result.ImageURL,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":   input.UserID.String(),
			"render_id": entry.ID.String(),
		})
		s.logg.Error(logCtx, "render completed but log write failed", err)
	}

	return &RenderOutput{
		RenderID: entry.ID,
		ImageURL: result.ImageURL,
		Credits:  balance,
	}, nil
}

func (s *service) ListRenders(ctx context.Context, userID uuid.UUID, limit int) ([]models.RenderLog, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *service) ListAllRenders(ctx context.Context, limit int) ([]models.RenderLog, error) {
	return s.repo.ListAll(ctx, limit)
}

func (s *service) CountRenders(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// refund returns the charge after a failed render. A refund failure is loud
// in the logs since it leaves the user short a credit.
func (s *service) refund(ctx context.Context, userID uuid.UUID, lastBalance int) int {
	balance, err := s.ledger.Adjust(ctx, ledger.AdjustInput{
		UserID:      userID,
		Delta:       s.cfg.RenderCost,
		Description: "studio render refund",
	})
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"credits": s.cfg.RenderCost,
		})
		s.logg.Error(logCtx, "render refund failed", err)
		return lastBalance
	}
	return balance
}
