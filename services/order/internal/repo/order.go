package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bubba_express/pkg/orderstatus"
	"github.com/Skotchmaster/bubba_express/services/order/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := withLines(r.DB.WithContext(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return r.page(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}, offset, limit)
}

// ListAllOrders returns every order, optionally narrowed to one status.
func (r *GormRepo) ListAllOrders(ctx context.Context, status orderstatus.Status, offset, limit int) (int64, []models.Order, error) {
	return r.page(ctx, func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("status = ?", status)
	}, offset, limit)
}

func (r *GormRepo) page(ctx context.Context, filter func(*gorm.DB) *gorm.DB, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Scopes(filter).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := withLines(r.DB.WithContext(ctx)).
		Scopes(filter).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// CompareAndSetStatus moves the order to `to` only if it is still in `from`.
// It reports false when the row was missing or already in another state.
func (r *GormRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to orderstatus.Status) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RewardTotals returns the totals of the user's orders that were not cancelled.
func (r *GormRepo) RewardTotals(ctx context.Context, userID uuid.UUID) ([]decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND status <> ?", userID, orderstatus.Cancelado).
		Pluck("total", &totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
