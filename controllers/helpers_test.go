package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pcstore/middleware"
	"pcstore/models"
	"pcstore/store"
	"pcstore/utils"
)

// fakeCatalog is an in-memory store.Catalog.
type fakeCatalog struct {
	products map[primitive.ObjectID]*models.Product

	// failDecrementFor simulates a concurrent purchase: decrements for this
	// product fail with ErrInsufficientStock even if the pre-check passed.
	failDecrementFor primitive.ObjectID
}

func newFakeCatalog(products ...*models.Product) *fakeCatalog {
	c := &fakeCatalog{products: map[primitive.ObjectID]*models.Product{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) FindProductByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, ok := c.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (c *fakeCatalog) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	product, ok := c.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if id == c.failDecrementFor || product.Quantity < qty {
		return store.ErrInsufficientStock
	}
	product.Quantity -= qty
	return nil
}

func (c *fakeCatalog) RestoreStock(_ context.Context, id primitive.ObjectID, qty int) error {
	product, ok := c.products[id]
	if !ok {
		return store.ErrNotFound
	}
	product.Quantity += qty
	return nil
}

func (c *fakeCatalog) stock(id primitive.ObjectID) int {
	return c.products[id].Quantity
}

// fakeCarts is an in-memory store.CartStore.
type fakeCarts struct {
	carts     map[primitive.ObjectID]*models.Cart
	saveCount int
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: map[primitive.ObjectID]*models.Cart{}}
}

func (f *fakeCarts) FindByUserID(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *cart
	clone.Items = append([]models.CartItem{}, cart.Items...)
	return &clone, nil
}

func (f *fakeCarts) Save(_ context.Context, cart *models.Cart) error {
	clone := *cart
	clone.Items = append([]models.CartItem{}, cart.Items...)
	f.carts[cart.UserID] = &clone
	f.saveCount++
	return nil
}

func (f *fakeCarts) Delete(_ context.Context, userID primitive.ObjectID) error {
	delete(f.carts, userID)
	return nil
}

// fakeHistory is an in-memory store.CartHistoryStore.
type fakeHistory struct {
	entries []models.CartHistory
}

func (f *fakeHistory) Append(_ context.Context, entry *models.CartHistory) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistory) ListByUser(_ context.Context, userID primitive.ObjectID, page, limit int) ([]models.CartHistory, int64, error) {
	var matched []models.CartHistory
	for _, e := range f.entries {
		if e.UserID == userID {
			matched = append(matched, e)
		}
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeHistory) actions() []string {
	actions := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// fakeOrders is an in-memory store.OrderStore.
type fakeOrders struct {
	orders     map[primitive.ObjectID]*models.Order
	failInsert bool
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[primitive.ObjectID]*models.Order{}}
}

func (f *fakeOrders) Insert(_ context.Context, order *models.Order) error {
	if f.failInsert {
		return context.DeadlineExceeded
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	clone := *order
	f.orders[order.ID] = &clone
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrders) Update(_ context.Context, order *models.Order) error {
	if _, ok := f.orders[order.ID]; !ok {
		return store.ErrNotFound
	}
	clone := *order
	f.orders[order.ID] = &clone
	return nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID primitive.ObjectID, status string, page, limit int) ([]models.Order, int64, error) {
	var matched []models.Order
	for _, o := range f.orders {
		if o.User != userID {
			continue
		}
		if status != "" && status != "all" && o.Status != status {
			continue
		}
		matched = append(matched, *o)
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeOrders) ListAll(_ context.Context, page, limit int) ([]models.Order, int64, error) {
	var all []models.Order
	for _, o := range f.orders {
		all = append(all, *o)
	}
	return all, int64(len(all)), nil
}

func (f *fakeOrders) Stats(_ context.Context) (*models.OrderStats, error) {
	stats := &models.OrderStats{ByStatus: map[string]int64{}}
	for _, o := range f.orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		if o.IsPaid {
			stats.PaidOrders++
			stats.TotalRevenue += o.TotalPrice
		} else {
			stats.UnpaidOrders++
		}
	}
	return stats, nil
}

// fakeBuilds is an in-memory store.BuildStore.
type fakeBuilds struct {
	configs map[primitive.ObjectID]*models.PCConfiguration
}

func newFakeBuilds() *fakeBuilds {
	return &fakeBuilds{configs: map[primitive.ObjectID]*models.PCConfiguration{}}
}

func cloneBuild(cfg *models.PCConfiguration) *models.PCConfiguration {
	clone := *cfg
	clone.Components = make(map[string]models.BuildComponent, len(cfg.Components))
	for slot, comp := range cfg.Components {
		clone.Components[slot] = comp
	}
	return &clone
}

func (f *fakeBuilds) Insert(_ context.Context, cfg *models.PCConfiguration) error {
	if cfg.ID.IsZero() {
		cfg.ID = primitive.NewObjectID()
	}
	f.configs[cfg.ID] = cloneBuild(cfg)
	return nil
}

func (f *fakeBuilds) FindByID(_ context.Context, id primitive.ObjectID) (*models.PCConfiguration, error) {
	cfg, ok := f.configs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneBuild(cfg), nil
}

func (f *fakeBuilds) Update(_ context.Context, cfg *models.PCConfiguration) error {
	if _, ok := f.configs[cfg.ID]; !ok {
		return store.ErrNotFound
	}
	f.configs[cfg.ID] = cloneBuild(cfg)
	return nil
}

func (f *fakeBuilds) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.PCConfiguration, error) {
	var matched []models.PCConfiguration
	for _, cfg := range f.configs {
		if cfg.UserID == userID {
			matched = append(matched, *cloneBuild(cfg))
		}
	}
	return matched, nil
}

func (f *fakeBuilds) ListBySession(_ context.Context, sessionID string) ([]models.PCConfiguration, error) {
	var matched []models.PCConfiguration
	for _, cfg := range f.configs {
		if cfg.SessionID == sessionID {
			matched = append(matched, *cloneBuild(cfg))
		}
	}
	return matched, nil
}

func (f *fakeBuilds) ListTemplates(_ context.Context, q store.TemplateQuery) ([]models.PCConfiguration, error) {
	var matched []models.PCConfiguration
	for _, cfg := range f.configs {
		if cfg.Platform != q.Platform || cfg.Status != models.BuildStatusCompleted || !cfg.IsPublic {
			continue
		}
		if q.UseCase != "" && cfg.UseCase != q.UseCase {
			continue
		}
		if q.BudgetMax > 0 && (cfg.Pricing.Total < q.BudgetMin || cfg.Pricing.Total > q.BudgetMax) {
			continue
		}
		matched = append(matched, *cloneBuild(cfg))
	}
	return matched, nil
}

// fakePayments is an in-memory store.PaymentStore.
type fakePayments struct {
	captures []models.PaymentCapture
}

func (f *fakePayments) InsertCapture(_ context.Context, capture *models.PaymentCapture) error {
	f.captures = append(f.captures, *capture)
	return nil
}

func userClaims(userID primitive.ObjectID) *utils.Claims {
	return &utils.Claims{UserID: userID.Hex(), Email: "user@example.com", Role: models.RoleUser}
}

func adminClaims() *utils.Claims {
	return &utils.Claims{UserID: primitive.NewObjectID().Hex(), Email: "admin@example.com", Role: models.RoleAdmin}
}

// newRequest builds an authenticated request with mux path variables set.
func newRequest(t *testing.T, method string, body interface{}, claims *utils.Claims, vars map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/", &buf)
	if claims != nil {
		ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)
		req = req.WithContext(ctx)
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

// decodeBody unmarshals the recorded response body into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func testShippingAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FirstName: "Asha",
		LastName:  "Rao",
		Address:   "12 MG Road",
		City:      "Bengaluru",
		State:     "KA",
		Pincode:   "560001",
		Phone:     "9900112233",
		Email:     "asha@example.com",
	}
}

func testProduct(price float64, quantity int) *models.Product {
	return &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "RTX 4070 Super",
		Brand:    "NVIDIA",
		Category: "gpu",
		Price:    price,
		Quantity: quantity,
		IsActive: true,
	}
}
