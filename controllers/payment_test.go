package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pcstore/models"
)

func TestRecordPayment(t *testing.T) {
	orders := newFakeOrders()
	payments := &fakePayments{}
	pc := NewPaymentController(orders, payments)
	userID := primitive.NewObjectID()

	order := &models.Order{
		User:          userID,
		Status:        models.StatusPending,
		PaymentMethod: models.PaymentMethodOnline,
		TotalPrice:    4500,
	}
	require.NoError(t, orders.Insert(nil, order))
	vars := map[string]string{"id": order.ID.Hex()}

	payload := map[string]string{
		"gatewayOrderId":   "gw_order_1",
		"gatewayPaymentId": "gw_pay_1",
	}
	rec := httptest.NewRecorder()
	pc.RecordPayment(rec, newRequest(t, "POST", payload, userClaims(userID), vars))

	require.Equal(t, 200, rec.Code)
	reference := decodeBody(t, rec)["reference"].(string)
	assert.NotEmpty(t, reference)

	stored := orders.orders[order.ID]
	assert.True(t, stored.IsPaid)
	assert.Equal(t, models.StatusProcessing, stored.Status)
	require.NotNil(t, stored.PaymentResult)
	assert.Equal(t, reference, stored.PaymentResult.Reference)
	assert.Equal(t, "gw_pay_1", stored.PaymentResult.GatewayPaymentID)

	require.Len(t, payments.captures, 1)
	assert.Equal(t, reference, payments.captures[0].Reference)
	assert.Equal(t, float64(4500), payments.captures[0].Amount)
}

func TestRecordPaymentAlreadyPaid(t *testing.T) {
	orders := newFakeOrders()
	payments := &fakePayments{}
	pc := NewPaymentController(orders, payments)
	userID := primitive.NewObjectID()

	order := &models.Order{
		User:       userID,
		Status:     models.StatusProcessing,
		IsPaid:     true,
		TotalPrice: 4500,
	}
	require.NoError(t, orders.Insert(nil, order))

	rec := httptest.NewRecorder()
	pc.RecordPayment(rec, newRequest(t, "POST", map[string]string{}, userClaims(userID), map[string]string{"id": order.ID.Hex()}))

	assert.Equal(t, 400, rec.Code)
	assert.Empty(t, payments.captures)
}

func TestRecordPaymentOwnership(t *testing.T) {
	orders := newFakeOrders()
	pc := NewPaymentController(orders, &fakePayments{})

	order := &models.Order{
		User:       primitive.NewObjectID(),
		Status:     models.StatusPending,
		TotalPrice: 100,
	}
	require.NoError(t, orders.Insert(nil, order))

	rec := httptest.NewRecorder()
	pc.RecordPayment(rec, newRequest(t, "POST", map[string]string{}, userClaims(primitive.NewObjectID()), map[string]string{"id": order.ID.Hex()}))
	assert.Equal(t, 403, rec.Code)

	rec = httptest.NewRecorder()
	pc.RecordPayment(rec, newRequest(t, "POST", map[string]string{}, userClaims(primitive.NewObjectID()), map[string]string{"id": primitive.NewObjectID().Hex()}))
	assert.Equal(t, 404, rec.Code)
}
