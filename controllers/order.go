package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pcstore/models"
	"pcstore/store"
)

// OrderController converts proposed order items into durable orders while
// keeping catalog stock consistent, and manages the status lifecycle.
type OrderController struct {
	Orders  store.OrderStore
	Catalog store.Catalog
	Carts   store.CartStore
	History store.CartHistoryStore
	Email   emailSender
}

// emailSender is the slice of the email service the order workflow uses.
type emailSender interface {
	SendOrderConfirmation(toEmail string, order *models.Order) error
	SendOrderStatusUpdate(toEmail string, order *models.Order) error
}

// NewOrderController creates an OrderController. email may be nil to
// disable notifications.
func NewOrderController(orders store.OrderStore, catalog store.Catalog, carts store.CartStore, history store.CartHistoryStore, email emailSender) *OrderController {
	return &OrderController{
		Orders:  orders,
		Catalog: catalog,
		Carts:   carts,
		History: history,
		Email:   email,
	}
}

// placeOrderRequest is the checkout payload.
type placeOrderRequest struct {
	OrderItems      []models.OrderItem     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TotalPrice      float64                `json:"totalPrice"`
	IsPaid          bool                   `json:"isPaid"`
	ClearCart       bool                   `json:"clearCart"`
}

// PlaceOrder validates stock for every item before touching it, then
// applies guarded decrements and creates the order. A decrement failure
// rolls back the decrements already applied, so a failed order never leaves
// partial stock changes behind.
func (oc *OrderController) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := authClaims(w, r)
	if !ok {
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid user identity")
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.OrderItems) == 0 {
		writeError(w, http.StatusBadRequest, "Order items are required")
		return
	}
	if issues := req.ShippingAddress.Validate(); len(issues) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Shipping address is incomplete",
			"issues":  issues,
		})
		return
	}
	if req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, "Payment method is required")
		return
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		writeError(w, http.StatusBadRequest, "Invalid payment method")
		return
	}
	if req.TotalPrice <= 0 {
		writeError(w, http.StatusBadRequest, "Valid total price is required")
		return
	}
	for _, item := range req.OrderItems {
		if item.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "Item quantity must be at least 1")
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Pre-validate every item against current stock before any mutation.
	for _, item := range req.OrderItems {
		product, err := oc.Catalog.FindProductByID(ctx, item.Product)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Product not found: %s", item.Product.Hex()))
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error checking product stock")
			return
		}
		if product.Quantity < item.Quantity {
			writeError(w, http.StatusBadRequest, fmt.Sprintf(
				"Insufficient stock for %s. Available: %d, Requested: %d",
				product.Name, product.Quantity, item.Quantity))
			return
		}
	}

	// Apply guarded decrements; on failure restore what was already taken.
	for i, item := range req.OrderItems {
		if err := oc.Catalog.DecrementStock(ctx, item.Product, item.Quantity); err != nil {
			oc.restoreItems(ctx, req.OrderItems[:i])
			if errors.Is(err, store.ErrInsufficientStock) {
				writeError(w, http.StatusConflict, "Stock changed while placing the order, please retry")
				return
			}
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("Product not found: %s", item.Product.Hex()))
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to update product stock")
			return
		}
	}

	now := time.Now()
	paid := req.IsPaid || req.PaymentMethod == models.PaymentMethodOnline
	order := &models.Order{
		User:            userID,
		OrderItems:      req.OrderItems,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TotalPrice:      req.TotalPrice,
		Status:          models.StatusPending,
		IsPaid:          paid,
	}
	if paid {
		order.Status = models.StatusProcessing
		order.PaidAt = now
	}

	if err := oc.Orders.Insert(ctx, order); err != nil {
		oc.restoreItems(ctx, req.OrderItems)
		writeError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	if req.ClearCart {
		oc.checkoutCart(ctx, userID)
	}

	if oc.Email != nil {
		go func(to string, order models.Order) {
			if err := oc.Email.SendOrderConfirmation(to, &order); err != nil {
				log.Printf("Failed to send order confirmation to %s: %v", to, err)
			}
		}(req.ShippingAddress.Email, *order)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Order placed successfully",
		"order":   order,
	})
}

// restoreItems compensates for decrements applied before a failure. Restore
// failures are logged; there is nothing better to do mid-rollback.
func (oc *OrderController) restoreItems(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := oc.Catalog.RestoreStock(ctx, item.Product, item.Quantity); err != nil {
			log.Printf("Failed to restore stock for %s (+%d): %v", item.Product.Hex(), item.Quantity, err)
		}
	}
}

// checkoutCart logs the checkout and empties the user's cart. The cart
// document itself survives, so lastSyncTime keeps protecting against stale
// client syncs; only the TTL index ever removes a cart. Failures are logged
// only; the order has already been placed.
func (oc *OrderController) checkoutCart(ctx context.Context, userID primitive.ObjectID) {
	cart, err := oc.Carts.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Failed to load cart for checkout of %s: %v", userID.Hex(), err)
		}
		return
	}
	if len(cart.Items) > 0 {
		entry := &models.CartHistory{
			UserID:       userID,
			Items:        cart.Items,
			Action:       models.CartActionCheckout,
			Timestamp:    time.Now(),
			CartSnapshot: models.SnapshotOf(cart),
		}
		if err := oc.History.Append(ctx, entry); err != nil {
			log.Printf("Failed to record checkout history for %s: %v", userID.Hex(), err)
		}
	}
	cart.Clear()
	cart.LastSyncTime = time.Now()
	if err := oc.Carts.Save(ctx, cart); err != nil {
		log.Printf("Failed to clear cart after checkout for %s: %v", userID.Hex(), err)
	}
}

// CancelOrder cancels a Pending or Processing order and restores each
// product's stock. The restore and the status change succeed or fail
// together: a failed order update re-applies the decrements.
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := authClaims(w, r)
	if !ok {
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading order")
		return
	}

	if order.User.Hex() != claims.UserID && !claims.IsAdmin() {
		writeError(w, http.StatusForbidden, "Not authorized to cancel this order")
		return
	}

	if err := order.Cancel(time.Now()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Put stock back before persisting the cancellation.
	restored := make([]models.OrderItem, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		err := oc.Catalog.RestoreStock(ctx, item.Product, item.Quantity)
		if errors.Is(err, store.ErrNotFound) {
			// Product was deleted since the order was placed; nothing to restore.
			continue
		}
		if err != nil {
			oc.redecrementItems(ctx, restored)
			writeError(w, http.StatusInternalServerError, "Failed to restore product stock")
			return
		}
		restored = append(restored, item)
	}

	if err := oc.Orders.Update(ctx, order); err != nil {
		oc.redecrementItems(ctx, restored)
		writeError(w, http.StatusInternalServerError, "Failed to cancel order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order cancelled successfully",
		"order":   order,
	})
}

// redecrementItems undoes stock restores after a failed cancellation.
func (oc *OrderController) redecrementItems(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := oc.Catalog.DecrementStock(ctx, item.Product, item.Quantity); err != nil {
			log.Printf("Failed to re-apply stock decrement for %s (-%d): %v", item.Product.Hex(), item.Quantity, err)
		}
	}
}

// UpdateOrderStatus sets an order's status (admin only).
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeError(w, http.StatusBadRequest, "Status is required")
		return
	}
	if !models.ValidOrderStatus(body.Status) {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading order")
		return
	}

	changed := order.SetStatus(body.Status, time.Now())
	if err := oc.Orders.Update(ctx, order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update order status")
		return
	}

	if changed && oc.Email != nil {
		go func(to string, order models.Order) {
			if err := oc.Email.SendOrderStatusUpdate(to, &order); err != nil {
				log.Printf("Failed to send status update to %s: %v", to, err)
			}
		}(order.ShippingAddress.Email, *order)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order status updated successfully",
		"order":   order,
	})
}

// MarkOrderAsPaid records payment on an order (admin only).
func (oc *OrderController) MarkOrderAsPaid(w http.ResponseWriter, r *http.Request) {
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading order")
		return
	}

	if err := order.MarkPaid(time.Now()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := oc.Orders.Update(ctx, order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mark order as paid")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order marked as paid successfully",
		"order":   order,
	})
}

// MarkOrderAsDelivered records delivery and forces the status to Delivered
// (admin only). This deliberately overrides the normal progression; when it
// skips a state the jump is logged.
func (oc *OrderController) MarkOrderAsDelivered(w http.ResponseWriter, r *http.Request) {
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading order")
		return
	}

	prior := order.Status
	if err := order.MarkDelivered(time.Now()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if prior != models.StatusShipped {
		log.Printf("Order %s marked delivered from %q, skipping Shipped", order.ID.Hex(), prior)
	}

	if err := oc.Orders.Update(ctx, order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mark order as delivered")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order marked as delivered successfully",
		"order":   order,
	})
}

// GetOrderByID returns one order to its owner or an admin.
func (oc *OrderController) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	claims, ok := authClaims(w, r)
	if !ok {
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading order")
		return
	}

	if order.User.Hex() != claims.UserID && !claims.IsAdmin() {
		writeError(w, http.StatusForbidden, "Not authorized to view this order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

// GetMyOrders lists the caller's orders, newest first, with an optional
// status filter.
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := authClaims(w, r)
	if !ok {
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid user identity")
		return
	}

	page, limit := pageParams(r, 10)
	status := r.URL.Query().Get("status")

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	orders, total, err := oc.Orders.ListByUser(ctx, userID, status, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"orders":     orders,
		"pagination": paginate(page, limit, total),
	})
}

// GetAllOrders lists every order (admin only).
func (oc *OrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, 20)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	orders, total, err := oc.Orders.ListAll(ctx, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"orders":     orders,
		"pagination": paginate(page, limit, total),
	})
}

// GetOrderStats returns the admin dashboard aggregate.
func (oc *OrderController) GetOrderStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := oc.Orders.Stats(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to fetch order statistics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}
