package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/vizailabs/vizboost-backend/pkg/db/models"
	pkgerrors "github.com/vizailabs/vizboost-backend/pkg/errors"
	"github.com/vizailabs/vizboost-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog reads and the idempotent seed.
type Service interface {
	GetForCheckout(ctx context.Context, id string) (*models.Product, error)
	ListActive(ctx context.Context) ([]models.Product, error)
	Seed(ctx context.Context, fixtures []models.Product) error
}

type service struct {
	tx   txRunner
	repo Repository
	logg *logger.Logger
}

// NewService wires a products service with the provided repository.
func NewService(tx txRunner, repo Repository, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, logg: logg}, nil
}

// GetForCheckout resolves a purchasable product. Inactive and unknown ids
// both come back NOT_FOUND so the catalog never leaks retired offerings.
func (s *service) GetForCheckout(ctx context.Context, id string) (*models.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListActive(ctx)
}

// Seed upserts the fixtures inside one transaction. Safe to run on every
// boot.
func (s *service) Seed(ctx context.Context, fixtures []models.Product) error {
	if len(fixtures) == 0 {
		return nil
	}
	for _, fixture := range fixtures {
		if strings.TrimSpace(fixture.ID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "seed product id required")
		}
		if !fixture.Type.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product type %q", fixture.Type))
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i := range fixtures {
			if err := repo.Upsert(ctx, &fixtures[i]); err != nil {
				return fmt.Errorf("seeding product %q: %w", fixtures[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Info(ctx, fmt.Sprintf("catalog seeded (%d products)", len(fixtures)))
	return nil
}
