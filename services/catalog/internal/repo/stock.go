package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bubba_express/services/catalog/internal/models"
)

const reserveAttempts = 5

var ErrStockContended = errors.New("stock changed concurrently")

// AdjustStock adds delta to the stock in one statement, clamping at zero.
func (r *GormRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("CASE WHEN stock + ? < 0 THEN 0 ELSE stock + ? END", delta, delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReserveStock takes up to qty units of a product for an order and records how many it got.
// A second call for the same order and product returns the first reservation and takes nothing.
func (r *GormRepo) ReserveStock(ctx context.Context, orderID, productID uuid.UUID, qty int) (taken int, fresh bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.StockReservation{OrderID: orderID, ProductID: productID})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			var existing models.StockReservation
			if err := tx.Where("order_id = ? AND product_id = ?", orderID, productID).First(&existing).Error; err != nil {
				return err
			}
			taken = existing.Quantity
			return nil
		}

		fresh = true
		n, err := takeStock(tx, productID, qty)
		if err != nil {
			return err
		}
		taken = n
		return tx.Model(&models.StockReservation{}).
			Where("order_id = ? AND product_id = ?", orderID, productID).
			Update("quantity", taken).Error
	})
	if err != nil {
		return 0, false, err
	}
	return taken, fresh, nil
}

// takeStock decrements min(stock, qty). The update only applies if stock still covers it.
func takeStock(tx *gorm.DB, productID uuid.UUID, qty int) (int, error) {
	for i := 0; i < reserveAttempts; i++ {
		var p models.Product
		if err := tx.Select("stock").Where("id = ?", productID).First(&p).Error; err != nil {
			return 0, err
		}
		taken := min(p.Stock, qty)
		if taken <= 0 {
			return 0, nil
		}
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", productID, taken).
			UpdateColumn("stock", gorm.Expr("stock - ?", taken))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 1 {
			return taken, nil
		}
	}
	return 0, fmt.Errorf("%w: product %s", ErrStockContended, productID)
}

// ReleaseStock gives back every unreleased reservation of an order and returns what was released.
// Releasing twice gives nothing back the second time.
func (r *GormRepo) ReleaseStock(ctx context.Context, orderID uuid.UUID) ([]models.StockReservation, error) {
	var released []models.StockReservation
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open []models.StockReservation
		if err := tx.Where("order_id = ? AND released = ?", orderID, false).Find(&open).Error; err != nil {
			return err
		}

		for _, rs := range open {
			mark := tx.Model(&models.StockReservation{}).
				Where("order_id = ? AND product_id = ? AND released = ?", rs.OrderID, rs.ProductID, false).
				Update("released", true)
			if mark.Error != nil {
				return mark.Error
			}
			if mark.RowsAffected == 0 {
				continue
			}
			if rs.Quantity > 0 {
				// a deleted product has nothing to give back to
				err := tx.Model(&models.Product{}).Where("id = ?", rs.ProductID).
					UpdateColumn("stock", gorm.Expr("stock + ?", rs.Quantity)).Error
				if err != nil {
					return err
				}
			}
			rs.Released = true
			released = append(released, rs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}
