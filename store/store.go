// Package store holds the MongoDB-backed persistence layer and the
// interfaces the controllers consume. Controllers depend on the interfaces
// so the workflow logic can be exercised without a running database.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pcstore/models"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("document not found")

// ErrInsufficientStock is returned by a guarded stock decrement that would
// take a product's quantity below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// Catalog is the product collaborator the cart and order workflows depend
// on. Only the order workflow durably changes stock; cart validation reads.
type Catalog interface {
	FindProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	RestoreStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

// CartStore persists one cart per user.
type CartStore interface {
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID primitive.ObjectID) error
}

// CartHistoryStore appends and lists cart audit records.
type CartHistoryStore interface {
	Append(ctx context.Context, entry *models.CartHistory) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.CartHistory, int64, error)
}

// OrderStore persists orders and serves the admin aggregates.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, status string, page, limit int) ([]models.Order, int64, error)
	ListAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	Stats(ctx context.Context) (*models.OrderStats, error)
}

// PaymentStore records payment captures.
type PaymentStore interface {
	InsertCapture(ctx context.Context, capture *models.PaymentCapture) error
}

// TemplateQuery narrows the public completed builds served as
// recommendations.
type TemplateQuery struct {
	Platform  string
	UseCase   string
	BudgetMin float64
	BudgetMax float64
	Limit     int
}

// BuildStore persists PC builder configurations.
type BuildStore interface {
	Insert(ctx context.Context, cfg *models.PCConfiguration) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PCConfiguration, error)
	Update(ctx context.Context, cfg *models.PCConfiguration) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PCConfiguration, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.PCConfiguration, error)
	ListTemplates(ctx context.Context, q TemplateQuery) ([]models.PCConfiguration, error)
}
