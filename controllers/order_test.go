package controllers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pcstore/models"
)

func newOrderController(catalog *fakeCatalog) (*OrderController, *fakeOrders, *fakeCarts, *fakeHistory) {
	orders := newFakeOrders()
	carts := newFakeCarts()
	history := &fakeHistory{}
	oc := NewOrderController(orders, catalog, carts, history, nil)
	return oc, orders, carts, history
}

func placeOrderPayload(items []models.OrderItem, method string, total float64) map[string]interface{} {
	return map[string]interface{}{
		"orderItems":      items,
		"shippingAddress": testShippingAddress(),
		"paymentMethod":   method,
		"totalPrice":      total,
	}
}

func TestPlaceOrderDecrementsStock(t *testing.T) {
	gpu := testProduct(45000, 5)
	ram := testProduct(6000, 10)
	catalog := newFakeCatalog(gpu, ram)
	oc, orders, _, _ := newOrderController(catalog)
	userID := primitive.NewObjectID()

	items := []models.OrderItem{
		{Product: gpu.ID, Name: gpu.Name, Quantity: 1, Price: gpu.Price},
		{Product: ram.ID, Name: ram.Name, Quantity: 2, Price: ram.Price},
	}
	rec := httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", placeOrderPayload(items, models.PaymentMethodCOD, 57000), userClaims(userID), nil))

	require.Equal(t, 201, rec.Code)
	assert.Equal(t, 4, catalog.stock(gpu.ID))
	assert.Equal(t, 8, catalog.stock(ram.ID))

	require.Len(t, orders.orders, 1)
	for _, order := range orders.orders {
		assert.Equal(t, models.StatusPending, order.Status)
		assert.False(t, order.IsPaid)
		assert.Equal(t, userID, order.User)
	}
}

func TestPlaceOrderOnlinePaymentStartsProcessing(t *testing.T) {
	product := testProduct(1000, 5)
	oc, orders, _, _ := newOrderController(newFakeCatalog(product))

	items := []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}}
	rec := httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", placeOrderPayload(items, models.PaymentMethodOnline, 1000), userClaims(primitive.NewObjectID()), nil))

	require.Equal(t, 201, rec.Code)
	for _, order := range orders.orders {
		assert.True(t, order.IsPaid)
		assert.Equal(t, models.StatusProcessing, order.Status)
		assert.False(t, order.PaidAt.IsZero())
	}
}

func TestPlaceOrderInsufficientStockTouchesNothing(t *testing.T) {
	gpu := testProduct(45000, 5)
	ram := testProduct(6000, 1)
	catalog := newFakeCatalog(gpu, ram)
	oc, orders, _, _ := newOrderController(catalog)

	items := []models.OrderItem{
		{Product: gpu.ID, Quantity: 2, Price: gpu.Price},
		{Product: ram.ID, Quantity: 3, Price: ram.Price},
	}
	rec := httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", placeOrderPayload(items, models.PaymentMethodCOD, 108000), userClaims(primitive.NewObjectID()), nil))

	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, 5, catalog.stock(gpu.ID))
	assert.Equal(t, 1, catalog.stock(ram.ID))
	assert.Empty(t, orders.orders)
}

func TestPlaceOrderDecrementRaceRollsBack(t *testing.T) {
	gpu := testProduct(45000, 5)
	ram := testProduct(6000, 10)
	catalog := newFakeCatalog(gpu, ram)
	// The pre-check passes, then the second decrement fails as if another
	// order took the stock in between.
	catalog.failDecrementFor = ram.ID
	oc, orders, _, _ := newOrderController(catalog)

	items := []models.OrderItem{
		{Product: gpu.ID, Quantity: 2, Price: gpu.Price},
		{Product: ram.ID, Quantity: 2, Price: ram.Price},
	}
	rec := httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", placeOrderPayload(items, models.PaymentMethodCOD, 102000), userClaims(primitive.NewObjectID()), nil))

	assert.Equal(t, 409, rec.Code)
	// The first decrement was rolled back.
	assert.Equal(t, 5, catalog.stock(gpu.ID))
	assert.Equal(t, 10, catalog.stock(ram.ID))
	assert.Empty(t, orders.orders)
}

func TestPlaceOrderInsertFailureRestoresStock(t *testing.T) {
	product := testProduct(1000, 5)
	catalog := newFakeCatalog(product)
	oc, orders, _, _ := newOrderController(catalog)
	orders.failInsert = true

	items := []models.OrderItem{{Product: product.ID, Quantity: 2, Price: 1000}}
	rec := httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", placeOrderPayload(items, models.PaymentMethodCOD, 2000), userClaims(primitive.NewObjectID()), nil))

	assert.Equal(t, 500, rec.Code)
	assert.Equal(t, 5, catalog.stock(product.ID))
}

func TestPlaceOrderValidation(t *testing.T) {
	product := testProduct(1000, 5)
	oc, _, _, _ := newOrderController(newFakeCatalog(product))
	claims := userClaims(primitive.NewObjectID())
	items := []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}}

	// No items.
	rec := httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", placeOrderPayload(nil, models.PaymentMethodCOD, 1000), claims, nil))
	assert.Equal(t, 400, rec.Code)

	// Incomplete address.
	payload := placeOrderPayload(items, models.PaymentMethodCOD, 1000)
	payload["shippingAddress"] = models.ShippingAddress{FirstName: "Asha"}
	rec = httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", payload, claims, nil))
	assert.Equal(t, 400, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["issues"])

	// Unknown payment method.
	rec = httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", placeOrderPayload(items, "crypto", 1000), claims, nil))
	assert.Equal(t, 400, rec.Code)

	// Non-positive total.
	rec = httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", placeOrderPayload(items, models.PaymentMethodCOD, 0), claims, nil))
	assert.Equal(t, 400, rec.Code)
}

func TestPlaceOrderClearsCartWhenAsked(t *testing.T) {
	product := testProduct(1000, 5)
	oc, _, carts, history := newOrderController(newFakeCatalog(product))
	userID := primitive.NewObjectID()

	cart := models.NewCart(userID)
	cart.AddItem(models.CartItem{ProductID: product.ID, Name: product.Name, Price: 1000, Quantity: 1, CartItemID: "line"})
	cart.ApplyCoupon(models.Coupon{Code: "SAVE10", Discount: 10, Type: models.CouponTypePercentage})
	require.NoError(t, carts.Save(nil, cart))

	payload := placeOrderPayload([]models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}}, models.PaymentMethodCOD, 1000)
	payload["clearCart"] = true
	rec := httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", payload, userClaims(userID), nil))

	require.Equal(t, 201, rec.Code)
	require.Contains(t, carts.carts, userID)
	cleared := carts.carts[userID]
	assert.Empty(t, cleared.Items)
	assert.Nil(t, cleared.AppliedCoupon)
	assert.False(t, cleared.LastSyncTime.IsZero())
	require.Equal(t, []string{models.CartActionCheckout}, history.actions())
}

func TestStaleSyncAfterCheckoutConflicts(t *testing.T) {
	product := testProduct(1000, 5)
	catalog := newFakeCatalog(product)
	oc, _, carts, history := newOrderController(catalog)
	cc := NewCartController(carts, history, catalog, models.DefaultCoupons())
	userID := primitive.NewObjectID()

	cart := models.NewCart(userID)
	cart.AddItem(models.CartItem{ProductID: product.ID, Name: product.Name, Price: 1000, Quantity: 1, CartItemID: "line"})
	cart.LastSyncTime = time.Now().Add(-time.Minute)
	require.NoError(t, carts.Save(nil, cart))

	payload := placeOrderPayload([]models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}}, models.PaymentMethodCOD, 1000)
	payload["clearCart"] = true
	rec := httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", payload, userClaims(userID), nil))
	require.Equal(t, 201, rec.Code)

	// A client that last synced before checkout tries to push its old items.
	price := 1000.0
	qty := 1
	sync := map[string]interface{}{
		"items": []models.IncomingCartItem{
			{ProductID: product.ID.Hex(), Name: product.Name, Price: &price, Quantity: &qty},
		},
		"lastSyncTime": time.Now().Add(-time.Hour),
	}
	rec = httptest.NewRecorder()
	cc.SyncCart(rec, newRequest(t, "POST", sync, userClaims(userID), cartVars(userID)))

	require.Equal(t, 200, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["conflict"])
	assert.Empty(t, carts.carts[userID].Items)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	product := testProduct(1000, 3)
	catalog := newFakeCatalog(product)
	oc, orders, _, _ := newOrderController(catalog)
	userID := primitive.NewObjectID()

	items := []models.OrderItem{{Product: product.ID, Quantity: 2, Price: 1000}}
	rec := httptest.NewRecorder()
	oc.PlaceOrder(rec, newRequest(t, "POST", placeOrderPayload(items, models.PaymentMethodCOD, 2000), userClaims(userID), nil))
	require.Equal(t, 201, rec.Code)
	require.Equal(t, 1, catalog.stock(product.ID))

	var orderID primitive.ObjectID
	for id := range orders.orders {
		orderID = id
	}

	rec = httptest.NewRecorder()
	oc.CancelOrder(rec, newRequest(t, "POST", nil, userClaims(userID), map[string]string{"id": orderID.Hex()}))

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, 3, catalog.stock(product.ID))
	assert.Equal(t, models.StatusCancelled, orders.orders[orderID].Status)

	// A second cancel is rejected.
	rec = httptest.NewRecorder()
	oc.CancelOrder(rec, newRequest(t, "POST", nil, userClaims(userID), map[string]string{"id": orderID.Hex()}))
	assert.Equal(t, 400, rec.Code)
}

func TestCancelOrderGuards(t *testing.T) {
	product := testProduct(1000, 5)
	oc, orders, _, _ := newOrderController(newFakeCatalog(product))
	owner := primitive.NewObjectID()

	order := &models.Order{
		User:       owner,
		Status:     models.StatusShipped,
		OrderItems: []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}},
		TotalPrice: 1000,
	}
	require.NoError(t, orders.Insert(nil, order))

	// Shipped orders cannot be cancelled.
	rec := httptest.NewRecorder()
	oc.CancelOrder(rec, newRequest(t, "POST", nil, userClaims(owner), map[string]string{"id": order.ID.Hex()}))
	assert.Equal(t, 400, rec.Code)

	// Strangers cannot cancel someone else's order.
	order2 := &models.Order{
		User:       owner,
		Status:     models.StatusPending,
		OrderItems: []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}},
		TotalPrice: 1000,
	}
	require.NoError(t, orders.Insert(nil, order2))
	rec = httptest.NewRecorder()
	oc.CancelOrder(rec, newRequest(t, "POST", nil, userClaims(primitive.NewObjectID()), map[string]string{"id": order2.ID.Hex()}))
	assert.Equal(t, 403, rec.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	product := testProduct(1000, 5)
	oc, orders, _, _ := newOrderController(newFakeCatalog(product))

	order := &models.Order{
		User:       primitive.NewObjectID(),
		Status:     models.StatusPending,
		OrderItems: []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}},
		TotalPrice: 1000,
	}
	require.NoError(t, orders.Insert(nil, order))

	rec := httptest.NewRecorder()
	oc.UpdateOrderStatus(rec, newRequest(t, "PUT", map[string]string{"status": models.StatusShipped}, adminClaims(), map[string]string{"id": order.ID.Hex()}))
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, models.StatusShipped, orders.orders[order.ID].Status)

	rec = httptest.NewRecorder()
	oc.UpdateOrderStatus(rec, newRequest(t, "PUT", map[string]string{"status": "Refunded"}, adminClaims(), map[string]string{"id": order.ID.Hex()}))
	assert.Equal(t, 400, rec.Code)
}

func TestMarkOrderAsPaidTwice(t *testing.T) {
	product := testProduct(1000, 5)
	oc, orders, _, _ := newOrderController(newFakeCatalog(product))

	order := &models.Order{
		User:       primitive.NewObjectID(),
		Status:     models.StatusPending,
		OrderItems: []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}},
		TotalPrice: 1000,
	}
	require.NoError(t, orders.Insert(nil, order))
	vars := map[string]string{"id": order.ID.Hex()}

	rec := httptest.NewRecorder()
	oc.MarkOrderAsPaid(rec, newRequest(t, "PUT", nil, adminClaims(), vars))
	require.Equal(t, 200, rec.Code)
	assert.True(t, orders.orders[order.ID].IsPaid)
	assert.Equal(t, models.StatusProcessing, orders.orders[order.ID].Status)

	rec = httptest.NewRecorder()
	oc.MarkOrderAsPaid(rec, newRequest(t, "PUT", nil, adminClaims(), vars))
	assert.Equal(t, 400, rec.Code)
}

func TestMarkOrderAsDeliveredTwice(t *testing.T) {
	product := testProduct(1000, 5)
	oc, orders, _, _ := newOrderController(newFakeCatalog(product))

	order := &models.Order{
		User:       primitive.NewObjectID(),
		Status:     models.StatusProcessing,
		OrderItems: []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}},
		TotalPrice: 1000,
	}
	require.NoError(t, orders.Insert(nil, order))
	vars := map[string]string{"id": order.ID.Hex()}

	rec := httptest.NewRecorder()
	oc.MarkOrderAsDelivered(rec, newRequest(t, "PUT", nil, adminClaims(), vars))
	require.Equal(t, 200, rec.Code)
	assert.True(t, orders.orders[order.ID].IsDelivered)
	assert.Equal(t, models.StatusDelivered, orders.orders[order.ID].Status)
	firstDeliveredAt := orders.orders[order.ID].DeliveredAt

	rec = httptest.NewRecorder()
	oc.MarkOrderAsDelivered(rec, newRequest(t, "PUT", nil, adminClaims(), vars))
	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, firstDeliveredAt, orders.orders[order.ID].DeliveredAt)
}

func TestGetOrderByIDOwnership(t *testing.T) {
	product := testProduct(1000, 5)
	oc, orders, _, _ := newOrderController(newFakeCatalog(product))
	owner := primitive.NewObjectID()

	order := &models.Order{
		User:       owner,
		Status:     models.StatusPending,
		OrderItems: []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}},
		TotalPrice: 1000,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, orders.Insert(nil, order))
	vars := map[string]string{"id": order.ID.Hex()}

	rec := httptest.NewRecorder()
	oc.GetOrderByID(rec, newRequest(t, "GET", nil, userClaims(owner), vars))
	assert.Equal(t, 200, rec.Code)

	rec = httptest.NewRecorder()
	oc.GetOrderByID(rec, newRequest(t, "GET", nil, userClaims(primitive.NewObjectID()), vars))
	assert.Equal(t, 403, rec.Code)

	rec = httptest.NewRecorder()
	oc.GetOrderByID(rec, newRequest(t, "GET", nil, adminClaims(), vars))
	assert.Equal(t, 200, rec.Code)
}

func TestGetMyOrdersFiltersByStatus(t *testing.T) {
	product := testProduct(1000, 5)
	oc, orders, _, _ := newOrderController(newFakeCatalog(product))
	userID := primitive.NewObjectID()

	for _, status := range []string{models.StatusPending, models.StatusDelivered} {
		require.NoError(t, orders.Insert(nil, &models.Order{
			User:       userID,
			Status:     status,
			OrderItems: []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 1000}},
			TotalPrice: 1000,
		}))
	}

	req := newRequest(t, "GET", nil, userClaims(userID), nil)
	req.URL.RawQuery = "status=" + models.StatusPending
	rec := httptest.NewRecorder()
	oc.GetMyOrders(rec, req)

	require.Equal(t, 200, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["orders"].([]interface{}), 1)
}

func TestGetOrderStats(t *testing.T) {
	product := testProduct(1000, 5)
	oc, orders, _, _ := newOrderController(newFakeCatalog(product))

	paid := &models.Order{User: primitive.NewObjectID(), Status: models.StatusProcessing, IsPaid: true, TotalPrice: 2500}
	unpaid := &models.Order{User: primitive.NewObjectID(), Status: models.StatusPending, TotalPrice: 1000}
	require.NoError(t, orders.Insert(nil, paid))
	require.NoError(t, orders.Insert(nil, unpaid))

	rec := httptest.NewRecorder()
	oc.GetOrderStats(rec, newRequest(t, "GET", nil, adminClaims(), nil))

	require.Equal(t, 200, rec.Code)
	stats := decodeBody(t, rec)["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["totalOrders"])
	assert.Equal(t, float64(2500), stats["totalRevenue"])
}
