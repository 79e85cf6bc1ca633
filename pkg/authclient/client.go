package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwthelp "github.com/Skotchmaster/bubba_express/pkg/jwt"
)

var (
	// ErrRejected means the session is over: the refresh token is expired, revoked or already rotated.
	ErrRejected    = errors.New("refresh rejected")
	ErrUnavailable = errors.New("auth service unavailable")
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(authServiceURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(authServiceURL, "/"),
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

// RefreshResponse is the body of POST /auth/refresh.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccessExp    int64  `json:"access_exp"`
	RefreshExp   int64  `json:"refresh_exp"`
	IsAdmin      bool   `json:"is_admin"`
}

// RefreshTokens trades a refresh token for a new pair. The auth service revokes the one presented.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*RefreshResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: refreshToken})
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: accessToken})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		return nil, fmt.Errorf("%w: empty token pair", ErrUnavailable)
	}
	return &result, nil
}
