package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"
	"github.com/Skotchmaster/bubba_express/pkg/objectstore"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/models"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/search"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/transport"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type Repository interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, f repo.Filter, offset, limit int) (int64, []models.Product, error)
	SearchLike(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	CreateProducts(ctx context.Context, ps []models.Product) error
	SaveProduct(ctx context.Context, p *models.Product) error
	SetImage(ctx context.Context, id uuid.UUID, url string) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	ReserveStock(ctx context.Context, orderID, productID uuid.UUID, qty int) (int, bool, error)
	ReleaseStock(ctx context.Context, orderID uuid.UUID) ([]models.StockReservation, error)
	CountProducts(ctx context.Context) (int64, error)
}

type CatalogService struct {
	Repo     Repository
	Index    search.Index
	Producer mykafka.EventPublisher
	Images   objectstore.Uploader
}

func notFound(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return err
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.Filter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, f, offset, limit)
}

// SearchProducts prefers the full-text index and falls back to LIKE matching when it is absent or failing.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("%w: q required", ErrValidation)
	}
	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchLike(ctx, q, offset, limit)
}

func validate(name string, price decimal.Decimal, stock int) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name required", ErrValidation)
	case price.IsNegative():
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	case stock < 0:
		return fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if err := validate(req.Name, req.Price, req.Stock); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		Popular:     req.Popular,
		Image:       strings.TrimSpace(req.Image),
		Calories:    req.Calories,
		Rating:      models.DefaultRating,
		Stock:       req.Stock,
	}
	if p.Category == "" {
		p.Category = models.DefaultCategory
	}
	if p.Image == "" {
		p.Image = models.DefaultImage
	}
	if req.Rating != nil {
		p.Rating = *req.Rating
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.reindex(ctx, p)
	s.publish(ctx, mykafka.EventProductCreated, p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
		if p.Category == "" {
			p.Category = models.DefaultCategory
		}
	}
	if req.Popular != nil {
		p.Popular = *req.Popular
	}
	if req.Image != nil {
		p.Image = strings.TrimSpace(*req.Image)
	}
	if req.Calories != nil {
		p.Calories = req.Calories
	}
	if req.Rating != nil {
		p.Rating = *req.Rating
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}

	if err := validate(p.Name, p.Price, p.Stock); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}

	s.reindex(ctx, p)
	s.publish(ctx, mykafka.EventProductUpdated, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, id)
	}

	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_remove_error", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, mykafka.EventProductDeleted, &models.Product{ID: id})
	return nil
}

// UploadImage stores the picture and points the product at its public URL.
func (s *CatalogService) UploadImage(ctx context.Context, id uuid.UUID, contentType string, r io.Reader, size int64) (*models.Product, error) {
	if s.Images == nil {
		return nil, fmt.Errorf("%w: image uploads are disabled", ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, id); err != nil {
		return nil, notFound(err, id)
	}

	url, err := s.Images.Upload(ctx, "products", contentType, r, size)
	if err != nil {
		if errors.Is(err, objectstore.ErrUnsupportedType) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}
	if err := s.Repo.SetImage(ctx, id, url); err != nil {
		return nil, notFound(err, id)
	}

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, p)
	s.publish(ctx, mykafka.EventProductUpdated, p)
	return p, nil
}

// AdjustStock is the staff restock path. It clamps at zero like every stock change.
func (s *CatalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", ErrValidation)
	}
	if err := s.Repo.AdjustStock(ctx, id, delta); err != nil {
		return nil, notFound(err, id)
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, p)
	s.publish(ctx, mykafka.EventProductUpdated, p)
	return p, nil
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_put_error", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, eventType string, p *models.Product) {
	if s.Producer == nil {
		return
	}
	ev := mykafka.ProductEvent{
		Type:       eventType,
		ProductID:  p.ID,
		Name:       p.Name,
		Category:   p.Category,
		Price:      p.Price,
		Stock:      p.Stock,
		OccurredAt: time.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, mykafka.TopicProductEvents, p.ID.String(), ev); err != nil {
		logging.FromContext(ctx).Error("product_event_publish_error", "type", eventType, "product_id", p.ID, "error", err)
	}
}
