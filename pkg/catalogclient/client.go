package catalogclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bubba_express/pkg/pricing"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrUnavailable = errors.New("catalog unavailable")
)

// ProductSource is what the cart and order services need from the catalog.
type ProductSource interface {
	GetProduct(ctx context.Context, id uuid.UUID) (pricing.Product, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(catalogURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(catalogURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type productResponse struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (pricing.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/catalog/products/"+id.String(), nil)
	if err != nil {
		return pricing.Product{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pricing.Product{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pricing.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return pricing.Product{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var p productResponse
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return pricing.Product{}, fmt.Errorf("decode response: %w", err)
	}

	return pricing.Product{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Image:    p.Image,
		Price:    p.Price,
		Stock:    p.Stock,
	}, nil
}

// Static serves products from memory. Tests and the seeded demo use it.
type Static map[uuid.UUID]pricing.Product

func (s Static) GetProduct(_ context.Context, id uuid.UUID) (pricing.Product, error) {
	p, ok := s[id]
	if !ok {
		return pricing.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}
