package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pcstore/models"
	"pcstore/store"
)

// PaymentController records online payment captures against orders.
type PaymentController struct {
	Orders   store.OrderStore
	Payments store.PaymentStore
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(orders store.OrderStore, payments store.PaymentStore) *PaymentController {
	return &PaymentController{Orders: orders, Payments: payments}
}

type recordPaymentRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	GatewaySignature string `json:"gatewaySignature"`
	Status           string `json:"status"`
}

// RecordPayment marks an order paid and writes the capture audit record. The
// reference ties the order's payment result to the captures collection.
func (pc *PaymentController) RecordPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := authClaims(w, r)
	if !ok {
		return
	}
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var body recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := pc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if order.User.Hex() != claims.UserID && !claims.IsAdmin() {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	if order.IsPaid {
		writeError(w, http.StatusBadRequest, "Order is already paid")
		return
	}

	now := time.Now()
	status := body.Status
	if status == "" {
		status = "captured"
	}
	reference := uuid.NewString()
	order.PaymentResult = &models.PaymentResult{
		Reference:        reference,
		Status:           status,
		GatewayOrderID:   body.GatewayOrderID,
		GatewayPaymentID: body.GatewayPaymentID,
		GatewaySignature: body.GatewaySignature,
		UpdateTime:       now,
	}
	if err := order.MarkPaid(now); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := pc.Orders.Update(ctx, order); err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating order")
		return
	}

	capture := &models.PaymentCapture{
		OrderID:          order.ID,
		Reference:        reference,
		GatewayOrderID:   body.GatewayOrderID,
		GatewayPaymentID: body.GatewayPaymentID,
		Amount:           order.TotalPrice,
		Method:           order.PaymentMethod,
		Status:           status,
		CreatedAt:        now,
	}
	if err := pc.Payments.InsertCapture(ctx, capture); err != nil {
		// The order is already marked paid; the capture is an audit record,
		// so log and carry on rather than failing the payment.
		log.Printf("Failed to record payment capture for order %s: %v", order.ID.Hex(), err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Payment recorded",
		"reference": reference,
		"order":     order,
	})
}
