package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pcstore/models"
	"pcstore/store"
)

// CartController owns per-user cart state, its derived totals, and the
// reconciliation of stored items against the live catalog.
type CartController struct {
	Carts   store.CartStore
	History store.CartHistoryStore
	Catalog store.Catalog
	Coupons models.CouponTable
}

// NewCartController creates a CartController with the given coupon table.
func NewCartController(carts store.CartStore, history store.CartHistoryStore, catalog store.Catalog, coupons models.CouponTable) *CartController {
	return &CartController{
		Carts:   carts,
		History: history,
		Catalog: catalog,
		Coupons: coupons,
	}
}

// cartIssue is one per-item problem surfaced by ValidateCart.
type cartIssue struct {
	CartItemID        string  `json:"cartItemId"`
	Issue             string  `json:"issue"`
	Message           string  `json:"message"`
	AvailableQuantity *int    `json:"availableQuantity,omitempty"`
	OldPrice          float64 `json:"oldPrice,omitempty"`
	NewPrice          float64 `json:"newPrice,omitempty"`
}

// getOrCreateCart returns the user's cart, creating an empty one on first
// access.
func (cc *CartController) getOrCreateCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := cc.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		cart = models.NewCart(userID)
		if err := cc.Carts.Save(ctx, cart); err != nil {
			return nil, err
		}
		return cart, nil
	}
	return cart, err
}

// reconcileCart drops items whose product no longer exists or is inactive
// and pulls stored prices up to date with the catalog. Changes are
// persisted. Stock levels are read but never written here.
func (cc *CartController) reconcileCart(ctx context.Context, cart *models.Cart) error {
	kept := make([]models.CartItem, 0, len(cart.Items))
	changed := false
	for _, item := range cart.Items {
		product, err := cc.Catalog.FindProductByID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			changed = true
			continue
		}
		if err != nil {
			return err
		}
		if !product.IsActive {
			changed = true
			continue
		}
		if product.Price != item.Price {
			item.OriginalPrice = item.Price
			item.Price = product.Price
			changed = true
		}
		kept = append(kept, item)
	}
	if !changed {
		return nil
	}
	cart.ReplaceItems(kept)
	return cc.Carts.Save(ctx, cart)
}

// recordHistory appends an audit entry for a cart mutation. History failures
// are logged, never surfaced.
func (cc *CartController) recordHistory(userID primitive.ObjectID, items []models.CartItem, action string, cart *models.Cart) {
	if len(items) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	entry := &models.CartHistory{
		UserID:       userID,
		Items:        items,
		Action:       action,
		Timestamp:    time.Now(),
		CartSnapshot: models.SnapshotOf(cart),
	}
	if err := cc.History.Append(ctx, entry); err != nil {
		log.Printf("Failed to record cart history for %s: %v", userID.Hex(), err)
	}
}

func (cc *CartController) cartResponse(cart *models.Cart, extra map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		"success": true,
		"items":   cart.Items,
		"summary": cart.Summary(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}

// GetCart returns the user's cart, creating it on first access and
// reconciling stored items against the catalog.
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.getOrCreateCart(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}
	if err := cc.reconcileCart(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error validating cart")
		return
	}

	writeJSON(w, http.StatusOK, cc.cartResponse(cart, map[string]interface{}{
		"appliedCoupon": cart.AppliedCoupon,
		"lastUpdated":   cart.LastUpdated,
	}))
}

// UpdateCart replaces the whole item set. Items failing shape validation are
// dropped silently rather than failing the call.
func (cc *CartController) UpdateCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	var body struct {
		Items []models.IncomingCartItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.getOrCreateCart(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	cc.recordHistory(userID, cart.Items, models.CartActionSync, cart)

	cart.ReplaceItems(models.NormalizeCartItems(body.Items))
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}

	writeJSON(w, http.StatusOK, cc.cartResponse(cart, map[string]interface{}{
		"message": "Cart updated successfully",
	}))
}

// AddToCart adds one product variant to the cart after checking the catalog
// for existence and stock. Adding an existing variant increments its line.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	var body struct {
		ProductID     string `json:"productId"`
		Quantity      int    `json:"quantity"`
		SelectedColor string `json:"selectedColor"`
		SelectedSize  string `json:"selectedSize"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.ProductID == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	productID, err := primitive.ObjectIDFromHex(body.ProductID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	if body.Quantity <= 0 {
		body.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	product, err := cc.Catalog.FindProductByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading product")
		return
	}
	if product.Quantity < body.Quantity {
		writeError(w, http.StatusBadRequest, "Insufficient stock")
		return
	}

	cart, err := cc.getOrCreateCart(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	item := models.CartItem{
		ProductID:       product.ID,
		Name:            product.Name,
		Brand:           product.Brand,
		Price:           product.Price,
		OriginalPrice:   product.OriginalPrice,
		Quantity:        body.Quantity,
		SelectedColor:   body.SelectedColor,
		SelectedSize:    body.SelectedSize,
		Images:          product.Images,
		CartItemID:      models.CartItemKey(product.ID, body.SelectedColor, body.SelectedSize),
		AddedAt:         time.Now(),
		ProductSnapshot: product,
	}
	if item.OriginalPrice == 0 {
		item.OriginalPrice = product.Price
	}

	cart.AddItem(item)
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}
	cc.recordHistory(userID, []models.CartItem{item}, models.CartActionAdd, cart)

	writeJSON(w, http.StatusOK, cc.cartResponse(cart, map[string]interface{}{
		"message": "Item added to cart",
	}))
}

// UpdateCartItem sets the quantity of one cart line. A quantity of zero
// removes the line.
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, ok := requireOwner(w, r, vars["userId"])
	if !ok {
		return
	}

	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Quantity == nil || *body.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "Valid quantity is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	if !cart.UpdateItemQuantity(vars["cartItemId"], *body.Quantity) {
		writeError(w, http.StatusNotFound, "Item not found in cart")
		return
	}
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}
	cc.recordHistory(userID, cart.Items, models.CartActionUpdate, cart)

	writeJSON(w, http.StatusOK, cc.cartResponse(cart, map[string]interface{}{
		"message": "Cart item updated",
	}))
}

// RemoveFromCart deletes one cart line. Removing an absent line succeeds.
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, ok := requireOwner(w, r, vars["userId"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	cart.RemoveItem(vars["cartItemId"])
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}
	cc.recordHistory(userID, cart.Items, models.CartActionRemove, cart)

	writeJSON(w, http.StatusOK, cc.cartResponse(cart, map[string]interface{}{
		"message": "Item removed from cart",
	}))
}

// ClearCart empties the cart and drops any applied coupon.
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	cc.recordHistory(userID, cart.Items, models.CartActionClear, cart)

	cart.Clear()
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error clearing cart")
		return
	}

	writeJSON(w, http.StatusOK, cc.cartResponse(cart, map[string]interface{}{
		"message": "Cart cleared successfully",
	}))
}

// SyncCart applies a client-side cart, unless the server copy has synced
// more recently than the client claims to have seen; then the server cart
// is returned with a conflict flag and nothing is changed.
func (cc *CartController) SyncCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	var body struct {
		Items        []models.IncomingCartItem `json:"items"`
		LastSyncTime time.Time                 `json:"lastSyncTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.getOrCreateCart(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	if !cart.LastSyncTime.IsZero() && body.LastSyncTime.Before(cart.LastSyncTime) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"conflict": true,
			"serverCart": map[string]interface{}{
				"items":        cart.Items,
				"lastSyncTime": cart.LastSyncTime,
			},
			"message": "Server cart is newer",
		})
		return
	}

	cc.recordHistory(userID, cart.Items, models.CartActionSync, cart)

	cart.ReplaceItems(models.NormalizeCartItems(body.Items))
	cart.LastSyncTime = time.Now()
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error syncing cart")
		return
	}

	writeJSON(w, http.StatusOK, cc.cartResponse(cart, map[string]interface{}{
		"message":      "Cart synced successfully",
		"lastSyncTime": cart.LastSyncTime,
	}))
}

// ValidateCart reconciles the cart against the catalog and reports per-item
// issues without mutating quantities or stock.
func (cc *CartController) ValidateCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	if err := cc.reconcileCart(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error validating cart")
		return
	}

	issues := []cartIssue{}
	for _, item := range cart.Items {
		product, err := cc.Catalog.FindProductByID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			issues = append(issues, cartIssue{
				CartItemID: item.CartItemID,
				Issue:      "product_not_found",
				Message:    "Product no longer available",
			})
			continue
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error validating cart")
			return
		}
		if product.Quantity < item.Quantity {
			available := product.Quantity
			issues = append(issues, cartIssue{
				CartItemID:        item.CartItemID,
				Issue:             "insufficient_stock",
				Message:           "Not enough stock available",
				AvailableQuantity: &available,
			})
		} else if product.Price != item.Price {
			// reconcileCart has already lifted stored prices to the catalog
			// price, so this only fires when the price moves between that
			// pass and this read.
			issues = append(issues, cartIssue{
				CartItemID: item.CartItemID,
				Issue:      "price_changed",
				Message:    "Price has changed",
				OldPrice:   item.Price,
				NewPrice:   product.Price,
			})
		}
	}

	writeJSON(w, http.StatusOK, cc.cartResponse(cart, map[string]interface{}{
		"valid":  len(issues) == 0,
		"issues": issues,
	}))
}

// ApplyCoupon validates the code against the coupon table and the cart
// total, then attaches it. The discount itself is computed by GetCartTotals.
func (cc *CartController) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	var body struct {
		CouponCode string `json:"couponCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CouponCode == "" {
		writeError(w, http.StatusBadRequest, "Coupon code is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	coupon, err := cc.Coupons.Validate(body.CouponCode, cart.TotalPrice)
	if err != nil {
		var minErr *models.MinOrderError
		if errors.As(err, &minErr) {
			writeError(w, http.StatusBadRequest, minErr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid coupon code")
		return
	}

	cart.ApplyCoupon(coupon)
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error applying coupon")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "Coupon applied successfully",
		"appliedCoupon": cart.AppliedCoupon,
		"summary":       cart.Summary(),
	})
}

// RemoveCoupon clears the applied coupon.
func (cc *CartController) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	cart.RemoveCoupon()
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "Error removing coupon")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Coupon removed successfully",
		"summary": cart.Summary(),
	})
}

// GetCartTotals computes the checkout breakdown, optionally trying a coupon
// code that has not been applied yet.
func (cc *CartController) GetCartTotals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	var body struct {
		CouponCode string `json:"couponCode"`
	}
	// Body is optional.
	json.NewDecoder(r.Body).Decode(&body)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := cc.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}

	totals := cart.Totals()
	applied := cart.AppliedCoupon
	if body.CouponCode != "" && (applied == nil || applied.Code != body.CouponCode) {
		if coupon, err := cc.Coupons.Validate(body.CouponCode, cart.TotalPrice); err == nil {
			totals.CouponDiscount = coupon.DiscountAmount(totals.Subtotal)
			totals.Total = totals.Subtotal - totals.CouponDiscount + totals.Shipping + totals.Tax
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"totals":  totals,
	})
}

// GetCartHistory lists the user's cart audit trail, newest first.
func (cc *CartController) GetCartHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r, mux.Vars(r)["userId"])
	if !ok {
		return
	}

	page, limit := pageParams(r, 10)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	entries, total, err := cc.History.ListByUser(ctx, userID, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"history":    entries,
		"pagination": paginate(page, limit, total),
	})
}
