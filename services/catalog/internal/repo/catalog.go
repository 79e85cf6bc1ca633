package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bubba_express/services/catalog/internal/models"
)

const (
	CategoryAll     = "Todo"
	CategoryPopular = "Popular"
)

type GormRepo struct {
	DB *gorm.DB
}

// Filter narrows a product listing. Empty fields match everything.
type Filter struct {
	Category string
	Query    string
}

func (f Filter) scope(db *gorm.DB) *gorm.DB {
	switch f.Category {
	case "", CategoryAll:
	case CategoryPopular:
		db = db.Where("popular = ?", true)
	default:
		db = db.Where("category = ?", f.Category)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		db = db.Where("LOWER(name) LIKE ?", like(q))
	}
	return db
}

func like(q string) string {
	return "%" + strings.ToLower(q) + "%"
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f Filter, offset, limit int) (int64, []models.Product, error) {
	return r.page(ctx, f.scope, offset, limit)
}

// SearchLike matches q against name, description and category.
func (r *GormRepo) SearchLike(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := like(q)
	return r.page(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern, pattern)
	}, offset, limit)
}

func (r *GormRepo) page(ctx context.Context, scope func(*gorm.DB) *gorm.DB, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Scopes(scope).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Scopes(scope).
		Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) CreateProducts(ctx context.Context, ps []models.Product) error {
	return r.DB.WithContext(ctx).Create(&ps).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) SetImage(ctx context.Context, id uuid.UUID, url string) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("image", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}
