package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartTTL is how long an untouched cart survives before the TTL index
// removes it.
const CartTTL = 30 * 24 * time.Hour

// CartItem is one selected product variant in a user's cart. Price and
// OriginalPrice are snapshots taken when the item was added; the live
// catalog is only consulted again during validation.
type CartItem struct {
	ProductID       primitive.ObjectID `bson:"product_id" json:"productId"`
	Name            string             `bson:"name" json:"name"`
	Brand           string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Price           float64            `bson:"price" json:"price"`
	OriginalPrice   float64            `bson:"original_price,omitempty" json:"originalPrice,omitempty"`
	Quantity        int                `bson:"quantity" json:"quantity"`
	SelectedColor   string             `bson:"selected_color,omitempty" json:"selectedColor,omitempty"`
	SelectedSize    string             `bson:"selected_size,omitempty" json:"selectedSize,omitempty"`
	Images          []string           `bson:"images,omitempty" json:"images,omitempty"`
	CartItemID      string             `bson:"cart_item_id" json:"cartItemId"`
	AddedAt         time.Time          `bson:"added_at" json:"addedAt"`
	ProductSnapshot *Product           `bson:"product_snapshot,omitempty" json:"productSnapshot,omitempty"`
}

// AppliedCoupon is the coupon currently attached to a cart. The discount is
// not folded into the stored totals; it is computed on demand by Totals.
type AppliedCoupon struct {
	Code      string    `bson:"code" json:"code"`
	Discount  float64   `bson:"discount" json:"discount"`
	Type      string    `bson:"type" json:"type"`
	AppliedAt time.Time `bson:"applied_at" json:"appliedAt"`
}

// Cart is the per-user aggregate. TotalItems, TotalPrice, TotalOriginalPrice
// and TotalSavings are derived and recomputed on every mutation.
type Cart struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID             primitive.ObjectID `bson:"user_id" json:"userId"`
	Items              []CartItem         `bson:"items" json:"items"`
	AppliedCoupon      *AppliedCoupon     `bson:"applied_coupon,omitempty" json:"appliedCoupon,omitempty"`
	TotalPrice         float64            `bson:"total_price" json:"totalPrice"`
	TotalOriginalPrice float64            `bson:"total_original_price" json:"totalOriginalPrice"`
	TotalSavings       float64            `bson:"total_savings" json:"totalSavings"`
	TotalItems         int                `bson:"total_items" json:"totalItems"`
	LastUpdated        time.Time          `bson:"last_updated" json:"lastUpdated"`
	LastSyncTime       time.Time          `bson:"last_sync_time" json:"lastSyncTime"`
	ExpiresAt          time.Time          `bson:"expires_at" json:"expiresAt"`
}

// CartSummary is the derived view returned with every cart response.
type CartSummary struct {
	TotalItems         int     `json:"totalItems"`
	TotalPrice         float64 `json:"totalPrice"`
	TotalOriginalPrice float64 `json:"totalOriginalPrice"`
	TotalSavings       float64 `json:"totalSavings"`
	ItemCount          int     `json:"itemCount"`
	IsEmpty            bool    `json:"isEmpty"`
	HasDiscounts       bool    `json:"hasDiscounts"`
	HasCoupon          bool    `json:"hasCoupon"`
}

// CartTotals is the checkout-facing breakdown. CouponDiscount is the only
// place the applied coupon affects a number.
type CartTotals struct {
	Subtotal       float64 `json:"subtotal"`
	OriginalTotal  float64 `json:"originalTotal"`
	Savings        float64 `json:"savings"`
	Shipping       float64 `json:"shipping"`
	Tax            float64 `json:"tax"`
	CouponDiscount float64 `json:"couponDiscount"`
	Total          float64 `json:"total"`
}

// CartItemKey builds the deterministic identity of a cart line from the
// product and its selected variant attributes.
func CartItemKey(productID primitive.ObjectID, color, size string) string {
	if color == "" {
		color = "default"
	}
	if size == "" {
		size = "default"
	}
	return fmt.Sprintf("%s_%s_%s", productID.Hex(), color, size)
}

// NewCart returns an empty cart for the user.
func NewCart(userID primitive.ObjectID) *Cart {
	now := time.Now()
	return &Cart{
		UserID:      userID,
		Items:       []CartItem{},
		LastUpdated: now,
		ExpiresAt:   now.Add(CartTTL),
	}
}

// RecalculateTotals rederives the stored totals from the current item set.
// Every mutator calls this before the cart is persisted.
func (c *Cart) RecalculateTotals() {
	c.TotalItems = 0
	c.TotalPrice = 0
	c.TotalOriginalPrice = 0
	for _, item := range c.Items {
		c.TotalItems += item.Quantity
		c.TotalPrice += item.Price * float64(item.Quantity)
		original := item.OriginalPrice
		if original == 0 {
			original = item.Price
		}
		c.TotalOriginalPrice += original * float64(item.Quantity)
	}
	c.TotalSavings = c.TotalOriginalPrice - c.TotalPrice
	c.LastUpdated = time.Now()
}

// AddItem merges the item into the cart. An item with the same cartItemId
// increments the existing line instead of duplicating it.
func (c *Cart) AddItem(item CartItem) {
	for i := range c.Items {
		if c.Items[i].CartItemID == item.CartItemID {
			c.Items[i].Quantity += item.Quantity
			c.RecalculateTotals()
			return
		}
	}
	c.Items = append(c.Items, item)
	c.RecalculateTotals()
}

// UpdateItemQuantity sets the quantity of the matching item, removing it when
// quantity drops to zero or below. Returns false if no item matches.
func (c *Cart) UpdateItemQuantity(cartItemID string, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].CartItemID != cartItemID {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		c.RecalculateTotals()
		return true
	}
	return false
}

// RemoveItem deletes the matching item. Removing an absent item is a no-op.
func (c *Cart) RemoveItem(cartItemID string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.CartItemID != cartItemID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.RecalculateTotals()
}

// Clear empties the cart and drops any applied coupon.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.AppliedCoupon = nil
	c.RecalculateTotals()
}

// ReplaceItems swaps in a new item set, as used by the full-update and sync
// flows. Callers are expected to normalize the items first.
func (c *Cart) ReplaceItems(items []CartItem) {
	c.Items = items
	c.RecalculateTotals()
}

// ApplyCoupon attaches a validated coupon to the cart.
func (c *Cart) ApplyCoupon(coupon Coupon) {
	c.AppliedCoupon = &AppliedCoupon{
		Code:      coupon.Code,
		Discount:  coupon.Discount,
		Type:      coupon.Type,
		AppliedAt: time.Now(),
	}
}

// RemoveCoupon clears the applied coupon.
func (c *Cart) RemoveCoupon() {
	c.AppliedCoupon = nil
}

// Summary builds the response summary from the stored totals.
func (c *Cart) Summary() CartSummary {
	return CartSummary{
		TotalItems:         c.TotalItems,
		TotalPrice:         c.TotalPrice,
		TotalOriginalPrice: c.TotalOriginalPrice,
		TotalSavings:       c.TotalSavings,
		ItemCount:          len(c.Items),
		IsEmpty:            len(c.Items) == 0,
		HasDiscounts:       c.TotalSavings > 0,
		HasCoupon:          c.AppliedCoupon != nil,
	}
}

// Totals builds the checkout breakdown, applying the coupon discount on
// demand. Fixed-amount coupons are clamped to the subtotal so the total can
// never go negative.
func (c *Cart) Totals() CartTotals {
	totals := CartTotals{
		Subtotal:      c.TotalPrice,
		OriginalTotal: c.TotalOriginalPrice,
		Savings:       c.TotalSavings,
	}
	if c.AppliedCoupon != nil {
		coupon := Coupon{
			Code:     c.AppliedCoupon.Code,
			Discount: c.AppliedCoupon.Discount,
			Type:     c.AppliedCoupon.Type,
		}
		totals.CouponDiscount = coupon.DiscountAmount(totals.Subtotal)
	}
	totals.Total = totals.Subtotal - totals.CouponDiscount + totals.Shipping + totals.Tax
	return totals
}

// IncomingCartItem is the raw client payload used by the full-update and
// sync flows. Pointer fields distinguish absent values from zero values.
type IncomingCartItem struct {
	ProductID       string    `json:"productId"`
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand"`
	Price           *float64  `json:"price"`
	OriginalPrice   float64   `json:"originalPrice"`
	Quantity        *int      `json:"quantity"`
	SelectedColor   string    `json:"selectedColor"`
	SelectedSize    string    `json:"selectedSize"`
	Images          []string  `json:"images"`
	CartItemID      string    `json:"cartItemId"`
	AddedAt         time.Time `json:"addedAt"`
	ProductSnapshot *Product  `json:"productSnapshot"`
}

// NormalizeCartItems validates and normalizes raw client items. Items with
// an unresolvable product id, empty name, negative price or non-positive
// quantity are silently dropped rather than failing the whole batch.
func NormalizeCartItems(raw []IncomingCartItem) []CartItem {
	items := make([]CartItem, 0, len(raw))
	for _, in := range raw {
		idHex := in.ProductID
		if idHex == "" {
			idHex = in.ID
		}
		productID, err := primitive.ObjectIDFromHex(idHex)
		if err != nil {
			continue
		}
		if in.Name == "" || in.Price == nil || *in.Price < 0 {
			continue
		}
		if in.Quantity == nil || *in.Quantity <= 0 {
			continue
		}

		item := CartItem{
			ProductID:       productID,
			Name:            in.Name,
			Brand:           in.Brand,
			Price:           *in.Price,
			OriginalPrice:   in.OriginalPrice,
			Quantity:        *in.Quantity,
			SelectedColor:   in.SelectedColor,
			SelectedSize:    in.SelectedSize,
			Images:          in.Images,
			CartItemID:      in.CartItemID,
			AddedAt:         in.AddedAt,
			ProductSnapshot: in.ProductSnapshot,
		}
		if item.OriginalPrice == 0 {
			item.OriginalPrice = item.Price
		}
		if item.CartItemID == "" {
			item.CartItemID = CartItemKey(productID, item.SelectedColor, item.SelectedSize)
		}
		if item.AddedAt.IsZero() {
			item.AddedAt = time.Now()
		}
		items = append(items, item)
	}
	return items
}
