package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func pendingOrder() *Order {
	now := time.Now()
	return &Order{
		ID:     primitive.NewObjectID(),
		User:   primitive.NewObjectID(),
		Status: StatusPending,
		OrderItems: []OrderItem{
			{Product: primitive.NewObjectID(), Quantity: 2, Price: 1000},
			{Product: primitive.NewObjectID(), Quantity: 1, Price: 500},
		},
		TotalPrice:    2500,
		StatusHistory: []StatusEntry{{Status: StatusPending, Timestamp: now}},
		CreatedAt:     now,
	}
}

func TestSetStatusAppendsHistory(t *testing.T) {
	order := pendingOrder()
	now := time.Now()

	changed := order.SetStatus(StatusShipped, now)
	assert.True(t, changed)
	assert.Equal(t, StatusShipped, order.Status)
	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, StatusShipped, order.StatusHistory[1].Status)

	// Re-setting the same status is a no-op.
	changed = order.SetStatus(StatusShipped, now)
	assert.False(t, changed)
	assert.Len(t, order.StatusHistory, 2)
}

func TestMarkPaid(t *testing.T) {
	order := pendingOrder()
	now := time.Now()

	require.NoError(t, order.MarkPaid(now))
	assert.True(t, order.IsPaid)
	assert.Equal(t, now, order.PaidAt)
	assert.Equal(t, StatusProcessing, order.Status)

	err := order.MarkPaid(now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, now, order.PaidAt)
}

func TestMarkPaidDoesNotRegressShippedStatus(t *testing.T) {
	order := pendingOrder()
	order.SetStatus(StatusShipped, time.Now())

	require.NoError(t, order.MarkPaid(time.Now()))
	assert.True(t, order.IsPaid)
	assert.Equal(t, StatusShipped, order.Status)
}

func TestMarkDelivered(t *testing.T) {
	order := pendingOrder()
	now := time.Now()
	order.SetStatus(StatusShipped, now)

	require.NoError(t, order.MarkDelivered(now))
	assert.True(t, order.IsDelivered)
	assert.Equal(t, now, order.DeliveredAt)
	assert.Equal(t, StatusDelivered, order.Status)

	err := order.MarkDelivered(now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyDelivered)
	assert.Equal(t, now, order.DeliveredAt)
}

func TestMarkDeliveredSkipsShipped(t *testing.T) {
	order := pendingOrder()
	order.SetStatus(StatusProcessing, time.Now())

	require.NoError(t, order.MarkDelivered(time.Now()))
	assert.Equal(t, StatusDelivered, order.Status)
	assert.True(t, order.IsDelivered)
}

func TestCancelGuards(t *testing.T) {
	now := time.Now()

	order := pendingOrder()
	require.NoError(t, order.Cancel(now))
	assert.Equal(t, StatusCancelled, order.Status)
	assert.False(t, order.CancelledAt.IsZero())
	assert.ErrorIs(t, order.Cancel(now), ErrAlreadyCancelled)

	order = pendingOrder()
	order.SetStatus(StatusProcessing, now)
	assert.NoError(t, order.Cancel(now))

	order = pendingOrder()
	order.SetStatus(StatusShipped, now)
	assert.ErrorIs(t, order.Cancel(now), ErrCannotCancelShipped)

	order = pendingOrder()
	require.NoError(t, order.MarkDelivered(now))
	assert.ErrorIs(t, order.Cancel(now), ErrCannotCancelDelivered)
}

func TestCanBeCancelled(t *testing.T) {
	order := pendingOrder()
	assert.True(t, order.CanBeCancelled())

	order.SetStatus(StatusProcessing, time.Now())
	assert.True(t, order.CanBeCancelled())

	order.SetStatus(StatusShipped, time.Now())
	assert.False(t, order.CanBeCancelled())
}

func TestTotalItems(t *testing.T) {
	order := pendingOrder()
	assert.Equal(t, 3, order.TotalItems())
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidOrderStatus(StatusPending))
	assert.False(t, ValidOrderStatus("Refunded"))

	assert.True(t, ValidPaymentMethod(PaymentMethodCOD))
	assert.True(t, ValidPaymentMethod(PaymentMethodOnline))
	assert.False(t, ValidPaymentMethod("crypto"))
}

func TestShippingAddressValidate(t *testing.T) {
	addr := ShippingAddress{
		FirstName: "Asha",
		LastName:  "Rao",
		Address:   "12 MG Road",
		City:      "Bengaluru",
		State:     "KA",
		Pincode:   "560001",
		Phone:     "9900112233",
		Email:     "asha@example.com",
	}
	assert.Empty(t, addr.Validate())

	addr.City = ""
	addr.Phone = ""
	issues := addr.Validate()
	assert.Len(t, issues, 2)
}
