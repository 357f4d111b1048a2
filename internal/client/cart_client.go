package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cart-sync-api/internal/models"
)

// CartClient provides methods to interact with the cart persistence API
type CartClient struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewCartClient creates a new cart client authenticating with the given
// session token
func NewCartClient(baseURL, sessionToken string, logger *slog.Logger) *CartClient {
	return &CartClient{
		baseURL:      baseURL,
		sessionToken: sessionToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SetSessionToken replaces the session token used for subsequent calls
func (c *CartClient) SetSessionToken(token string) {
	c.sessionToken = token
}

// FetchCart retrieves the server-cached cart for the current session
func (c *CartClient) FetchCart(ctx context.Context) (*models.CartSnapshot, error) {
	url := fmt.Sprintf("%s/v1/cart", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Session-Token", c.sessionToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var cartResp models.CartResponse
	if err := json.NewDecoder(resp.Body).Decode(&cartResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !cartResp.Success || cartResp.Cart == nil {
		return models.EmptyCartSnapshot(), nil
	}
	return cartResp.Cart, nil
}

// SaveCart pushes the full cart to the persistence endpoint and returns
// the server-recomputed snapshot
func (c *CartClient) SaveCart(ctx context.Context, items []models.CartLineItem, operation string) (*models.CartSnapshot, error) {
	url := fmt.Sprintf("%s/v1/cart", c.baseURL)

	payload := models.SaveCartRequest{
		Items:     items,
		Operation: operation,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Token", c.sessionToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var cartResp models.CartResponse
	if err := json.Unmarshal(body, &cartResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !cartResp.Success {
		return nil, fmt.Errorf("cart save failed with status %d: %s", resp.StatusCode, cartResp.Message)
	}

	return cartResp.Cart, nil
}

// SaveCartBestEffort fires a cart push without waiting for confirmation.
// At-most-once, no delivery guarantee: this backs the unload push, which
// must never block whatever the user is doing.
func (c *CartClient) SaveCartBestEffort(items []models.CartLineItem, operation string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := c.SaveCart(ctx, items, operation); err != nil {
			c.logger.Warn("Best-effort cart push failed",
				"operation", operation,
				"item_count", len(items),
				"error", err)
		}
	}()
}
