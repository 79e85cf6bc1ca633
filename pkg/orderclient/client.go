package orderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	jwthelp "github.com/Skotchmaster/bubba_express/pkg/jwt"
)

var (
	ErrRejected    = errors.New("order rejected")
	ErrConflict    = errors.New("order conflict")
	ErrUnavailable = errors.New("order service unavailable")
)

type LineRequest struct {
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	MilkID     string    `json:"milk_id,omitempty"`
	ToppingIDs []string  `json:"topping_ids,omitempty"`
	Comment    string    `json:"comment,omitempty"`
}

type CreateOrderRequest struct {
	Lines []LineRequest `json:"lines"`
}

// Order is the part of the order response the cart needs to report back.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	Status         string          `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	PointsEarned   int64           `json:"points_earned"`
	PickupLocation string          `json:"pickup_location"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Creator interface {
	CreateOrder(ctx context.Context, accessToken, idempotencyKey string, req CreateOrderRequest) (*Order, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(orderURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(orderURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder forwards the caller's access token so the order is owned by the same user.
func (c *Client) CreateOrder(ctx context.Context, accessToken, idempotencyKey string, in CreateOrderRequest) (*Order, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	req.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: accessToken})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusBadRequest, http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrRejected, readMessage(resp))
	case http.StatusConflict:
		return nil, fmt.Errorf("%w: %s", ErrConflict, readMessage(resp))
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out Order
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func readMessage(resp *http.Response) string {
	var m struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil || m.Message == "" {
		return http.StatusText(resp.StatusCode)
	}
	return m.Message
}
