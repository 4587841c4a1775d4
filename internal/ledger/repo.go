package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vizailabs/vizboost-backend/pkg/db/models"
)

// Repository manages persistence for user balances and the transaction audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// AdjustBalance applies delta atomically, refusing updates that would
	// take the balance negative. It returns the number of rows updated.
	AdjustBalance(ctx context.Context, userID uuid.UUID, delta int) (int64, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) AdjustBalance(ctx context.Context, userID uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND credits + ? >= 0", userID, delta).
		UpdateColumn("credits", gorm.Expr("credits + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("credits").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
