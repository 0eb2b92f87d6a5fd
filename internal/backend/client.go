// Package backend is the client for the upstream Expertrait REST API, the
// external system of record for bookings, wallets and status transitions.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"expertrait/internal/config"
	"expertrait/internal/models"

	"github.com/rs/zerolog"
)

// ErrUpstream wraps any non-2xx response from the backend.
var ErrUpstream = errors.New("backend error")

// ErrNotFound marks a 404 from the backend.
var ErrNotFound = errors.New("not found")

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(cfg config.BackendConfig, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.APIToken,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
	}
}

// FetchBookings loads the full raw collection for one dashboard. Records
// are returned undecoded; normalization is the view model's concern.
func (c *Client) FetchBookings(ctx context.Context, role models.Role, viewerID string) ([]map[string]any, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	var resp struct {
		Bookings []map[string]any `json:"bookings"`
	}
	path := fmt.Sprintf("/api/bookings/%s/%s", url.PathEscape(string(role)), url.PathEscape(viewerID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}
	return resp.Bookings, nil
}

// FetchWallet loads a handler's balance and lifetime earnings.
func (c *Client) FetchWallet(ctx context.Context, handlerID string) (models.Wallet, error) {
	var wallet models.Wallet
	path := fmt.Sprintf("/api/handler/%s/wallet", url.PathEscape(handlerID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &wallet); err != nil {
		return models.Wallet{}, fmt.Errorf("fetch wallet: %w", err)
	}
	return wallet, nil
}

// AcceptBooking asks the backend to move a booking to confirmed. The caller
// re-fetches the collection afterwards; the response body is not used.
func (c *Client) AcceptBooking(ctx context.Context, bookingID string) error {
	path := fmt.Sprintf("/api/bookings/%s/accept", url.PathEscape(bookingID))
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("accept booking %s: %w", bookingID, err)
	}
	return nil
}

// CompleteBooking asks the backend to mark a booking completed.
func (c *Client) CompleteBooking(ctx context.Context, bookingID string) error {
	path := fmt.Sprintf("/api/bookings/%s/complete", url.PathEscape(bookingID))
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("complete booking %s: %w", bookingID, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("backend returned error status")
		return fmt.Errorf("%w: status=%d path=%s", ErrUpstream, resp.StatusCode, path)
	}

	if respBody != nil && len(body) > 0 {
		if err := json.Unmarshal(body, respBody); err != nil {
			return fmt.Errorf("decode backend response: %w", err)
		}
	}

	return nil
}
