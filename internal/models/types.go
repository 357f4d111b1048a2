package models

import "time"

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ColorInfo describes the color of the selected style
type ColorInfo struct {
	Name string `json:"name,omitempty"`
	Hex  string `json:"hex,omitempty"`
}

// VendorInfo identifies the vendor the product belongs to
type VendorInfo struct {
	VendorID string `json:"vendorId,omitempty"`
	Name     string `json:"name,omitempty"`
}

// CartLineItem is one distinct purchasable variant in a cart.
// VariantKey is the composite productId_styleIndex_size and is unique
// within a cart: two additions of the same variant merge quantities.
type CartLineItem struct {
	ProductID       string     `json:"productId" validate:"required"`
	VariantKey      string     `json:"variantKey" validate:"required"`
	Name            string     `json:"name"`
	UnitPrice       float64    `json:"unitPrice" validate:"gte=0"`
	Quantity        int        `json:"quantity" validate:"gt=0"`
	Size            string     `json:"size"`
	StyleIndex      int        `json:"styleIndex" validate:"gte=0"`
	Images          []string   `json:"images,omitempty"`
	AvailableStock  int        `json:"availableStock"`
	DiscountPercent float64    `json:"discountPercent" validate:"gte=0,lte=100"`
	Color           ColorInfo  `json:"color,omitempty"`
	Vendor          VendorInfo `json:"vendor,omitempty"`
	LastModifiedAt  time.Time  `json:"lastModifiedAt,omitempty"`
}

// CartSnapshot is the serialized cart stored in the server cart cache
// and returned by the persistence endpoint. Total and ItemCount are
// always recomputed from Items server-side, never trusted from clients.
type CartSnapshot struct {
	Items     []CartLineItem `json:"items"`
	Total     float64        `json:"total"`
	ItemCount int            `json:"itemCount"`
}

// SaveCartRequest is the write-side payload of the persistence endpoint.
// Operation is a free-form label used only for logging.
type SaveCartRequest struct {
	Items     []CartLineItem `json:"items"`
	Operation string         `json:"operation,omitempty"`
}

// CartResponse is the envelope for both read and write operations
type CartResponse struct {
	Success bool          `json:"success"`
	Cart    *CartSnapshot `json:"cart,omitempty"`
	Message string        `json:"message,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// EmptyCartSnapshot returns the degraded-mode cart structure used when
// no identity is resolvable or no cached cart exists
func EmptyCartSnapshot() *CartSnapshot {
	return &CartSnapshot{
		Items:     []CartLineItem{},
		Total:     0,
		ItemCount: 0,
	}
}
