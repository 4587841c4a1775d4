package studio

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vizailabs/vizboost-backend/pkg/db/models"
)

// Repository persists and queries studio render logs.
type Repository interface {
	Create(ctx context.Context, log *models.RenderLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.RenderLog, error)
	ListAll(ctx context.Context, limit int) ([]models.RenderLog, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a render log repository bound to the given database handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, log *models.RenderLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.RenderLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.RenderLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repository) ListAll(ctx context.Context, limit int) ([]models.RenderLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []models.RenderLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RenderLog{}).Count(&count).Error
	return count, err
}
