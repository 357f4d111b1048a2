package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"cart-sync-api/internal/cache"
	"cart-sync-api/internal/cart"
	"cart-sync-api/internal/middleware"
	"cart-sync-api/internal/models"
	"cart-sync-api/internal/telemetry"

	"github.com/go-playground/validator/v10"
)

// CartHandler handles cart persistence HTTP requests
type CartHandler struct {
	cartCache cache.CartCache
	cartTTL   time.Duration
	validate  *validator.Validate
	telemetry *telemetry.CartApiTelemetry
}

// NewCartHandler creates a new cart handler persisting with the given TTL
func NewCartHandler(cartCache cache.CartCache, cartTTL time.Duration, apiTelemetry *telemetry.CartApiTelemetry) *CartHandler {
	return &CartHandler{
		cartCache: cartCache,
		cartTTL:   cartTTL,
		validate:  validator.New(),
		telemetry: apiTelemetry,
	}
}

// writeJSONResponse is a helper function to write JSON responses
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse is a helper function to write error responses
func writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string, details []models.ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// GetCart handles GET /v1/cart - read the cached cart for the current
// identity. Unauthenticated reads and cache misses degrade to an empty
// cart rather than failing the page.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())

	// Explicit identity lookup for administrative/testing use
	if explicitID := r.URL.Query().Get("userId"); explicitID != "" {
		if !middleware.IsAdminToken(r) {
			slog.Warn("Rejected explicit-identity cart lookup without admin token",
				"remote_addr", r.RemoteAddr)
			writeErrorResponse(w, http.StatusForbidden, "forbidden", "Admin access required", nil)
			return
		}
		userID = explicitID
		ok = true
	}

	if !ok {
		slog.Debug("Cart read without resolvable identity, returning empty cart",
			"remote_addr", r.RemoteAddr)
		writeJSONResponse(w, http.StatusOK, models.CartResponse{
			Success: true,
			Cart:    models.EmptyCartSnapshot(),
		})
		return
	}

	snapshot, found, err := h.cartCache.Get(r.Context(), userID)
	if err != nil {
		// Cache unavailability never surfaces as an error on reads
		slog.Error("Cart cache unavailable on read, degrading to empty cart",
			"user_id", userID,
			"error", err)
		h.telemetry.RegisterCacheUnavailable(r.Context())
		snapshot, found = nil, false
	}
	if !found {
		writeJSONResponse(w, http.StatusOK, models.CartResponse{
			Success: true,
			Cart:    models.EmptyCartSnapshot(),
		})
		return
	}

	slog.Debug("Returning cached cart",
		"user_id", userID,
		"item_count", snapshot.ItemCount)
	h.telemetry.RegisterCartRead(r.Context(), len(snapshot.Items))
	writeJSONResponse(w, http.StatusOK, models.CartResponse{
		Success: true,
		Cart:    snapshot,
	})
}

// SaveCart handles PUT /v1/cart - full-cart replace for the
// authenticated identity. Malformed line items are dropped, not fatal;
// aggregates are recomputed server-side from the filtered items.
func (h *CartHandler) SaveCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authenticated session required", nil)
		return
	}

	var req models.SaveCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Invalid JSON in cart save request",
			"user_id", userID,
			"error", err,
			"remote_addr", r.RemoteAddr)
		writeErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid JSON", nil)
		return
	}

	items := h.sanitizeItems(userID, req.Items)
	snapshot := cart.Snapshot(items)

	if err := h.cartCache.Set(r.Context(), userID, snapshot, h.cartTTL); err != nil {
		slog.Error("Cart cache unavailable on write",
			"user_id", userID,
			"operation", req.Operation,
			"error", err)
		h.telemetry.RegisterCacheUnavailable(r.Context())
		writeJSONResponse(w, http.StatusServiceUnavailable, models.CartResponse{
			Success: false,
			Message: "Cart storage temporarily unavailable, please retry",
		})
		return
	}

	slog.Info("Cart saved",
		"user_id", userID,
		"operation", req.Operation,
		"item_count", snapshot.ItemCount,
		"dropped_items", len(req.Items)-len(items))
	h.telemetry.RegisterCartWrite(r.Context(), len(items))

	writeJSONResponse(w, http.StatusOK, models.CartResponse{
		Success: true,
		Cart:    snapshot,
	})
}

// DeleteCart handles DELETE /v1/cart - clears the cached cart for the
// authenticated identity (support tooling, logout-everywhere)
func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authenticated session required", nil)
		return
	}

	if err := h.cartCache.Delete(r.Context(), userID); err != nil {
		slog.Error("Cart cache unavailable on delete", "user_id", userID, "error", err)
		h.telemetry.RegisterCacheUnavailable(r.Context())
		writeJSONResponse(w, http.StatusServiceUnavailable, models.CartResponse{
			Success: false,
			Message: "Cart storage temporarily unavailable, please retry",
		})
		return
	}

	slog.Info("Cart deleted", "user_id", userID)
	writeJSONResponse(w, http.StatusOK, models.CartResponse{
		Success: true,
		Cart:    models.EmptyCartSnapshot(),
	})
}

// sanitizeItems filters the incoming line items, dropping any entry
// missing identity fields or failing validation. Stale or adversarial
// entries are not a reason to fail the whole request.
func (h *CartHandler) sanitizeItems(userID string, items []models.CartLineItem) []models.CartLineItem {
	valid := make([]models.CartLineItem, 0, len(items))
	for _, item := range items {
		if err := h.validate.Struct(item); err != nil {
			slog.Warn("Dropping invalid cart line item",
				"user_id", userID,
				"product_id", item.ProductID,
				"variant_key", item.VariantKey,
				"quantity", item.Quantity,
				"error", err)
			continue
		}
		valid = append(valid, item)
	}
	return valid
}
