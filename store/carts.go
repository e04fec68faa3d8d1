package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pcstore/models"
)

// Carts is the MongoDB cart store. One document per user, removed by a TTL
// index after thirty days without activity.
type Carts struct {
	coll *mongo.Collection
}

// NewCarts returns a cart store over the carts collection.
func NewCarts(db *mongo.Database) *Carts {
	return &Carts{coll: db.Collection("carts")}
}

// EnsureIndexes creates the unique owner index and the expiry TTL index.
func (c *Carts) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	return err
}

// FindByUserID returns the user's cart or ErrNotFound.
func (c *Carts) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := c.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save upserts the cart and pushes the expiry window forward, so the TTL is
// measured from the last activity.
func (c *Carts) Save(ctx context.Context, cart *models.Cart) error {
	cart.ExpiresAt = time.Now().Add(models.CartTTL)
	if cart.ID.IsZero() {
		res, err := c.coll.InsertOne(ctx, cart)
		if err != nil {
			return err
		}
		cart.ID = res.InsertedID.(primitive.ObjectID)
		return nil
	}
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart)
	return err
}

// Delete removes the user's cart. Deleting an absent cart is not an error.
func (c *Carts) Delete(ctx context.Context, userID primitive.ObjectID) error {
	_, err := c.coll.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

// CartHistories is the append-only audit store for cart mutations.
type CartHistories struct {
	coll *mongo.Collection
}

// NewCartHistories returns a history store over the cart_history collection.
func NewCartHistories(db *mongo.Database) *CartHistories {
	return &CartHistories{coll: db.Collection("cart_history")}
}

// EnsureIndexes creates the user/time index and the retention TTL index.
func (h *CartHistories) EnsureIndexes(ctx context.Context) error {
	_, err := h.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(models.CartHistoryTTL / time.Second)),
		},
	})
	return err
}

// Append inserts one history entry.
func (h *CartHistories) Append(ctx context.Context, entry *models.CartHistory) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := h.coll.InsertOne(ctx, entry)
	return err
}

// ListByUser returns a page of the user's history, newest first, plus the
// total count.
func (h *CartHistories) ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.CartHistory, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	query := bson.M{"user_id": userID}

	total, err := h.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := h.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var entries []models.CartHistory
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
