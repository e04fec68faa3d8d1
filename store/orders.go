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

// Orders is the MongoDB order store.
type Orders struct {
	coll *mongo.Collection
}

// NewOrders returns an order store over the orders collection.
func NewOrders(db *mongo.Database) *Orders {
	return &Orders{coll: db.Collection("orders")}
}

// EnsureIndexes creates the lookup indexes the order queries rely on.
func (o *Orders) EnsureIndexes(ctx context.Context) error {
	_, err := o.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "is_paid", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// Insert creates the order and fills in its id and timestamps.
func (o *Orders) Insert(ctx context.Context, order *models.Order) error {
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	res, err := o.coll.InsertOne(ctx, order)
	if err != nil {
		return err
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID returns the order or ErrNotFound.
func (o *Orders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := o.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update replaces the stored order.
func (o *Orders) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()
	res, err := o.coll.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a page of the user's orders, newest first, optionally
// filtered by status.
func (o *Orders) ListByUser(ctx context.Context, userID primitive.ObjectID, status string, page, limit int) ([]models.Order, int64, error) {
	query := bson.M{"user": userID}
	if status != "" && status != "all" {
		query["status"] = status
	}
	return o.list(ctx, query, page, limit)
}

// ListAll returns a page of every order, newest first.
func (o *Orders) ListAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	return o.list(ctx, bson.M{}, page, limit)
}

func (o *Orders) list(ctx context.Context, query bson.M, page, limit int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	total, err := o.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := o.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Stats computes the admin dashboard aggregate: counts per status, paid and
// unpaid split, revenue over paid orders, and orders placed in the last
// seven days.
func (o *Orders) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats := &models.OrderStats{ByStatus: make(map[string]int64)}

	total, err := o.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats.TotalOrders = total

	for _, status := range []string{
		models.StatusPending, models.StatusProcessing, models.StatusShipped,
		models.StatusDelivered, models.StatusCancelled,
	} {
		count, err := o.coll.CountDocuments(ctx, bson.M{"status": status})
		if err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
	}

	if stats.PaidOrders, err = o.coll.CountDocuments(ctx, bson.M{"is_paid": true}); err != nil {
		return nil, err
	}
	stats.UnpaidOrders = total - stats.PaidOrders

	cursor, err := o.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_paid": true}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "revenue": bson.M{"$sum": "$total_price"}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var revenue []struct {
		Revenue float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &revenue); err != nil {
		return nil, err
	}
	if len(revenue) > 0 {
		stats.TotalRevenue = revenue[0].Revenue
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	if stats.RecentOrders, err = o.coll.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": weekAgo}}); err != nil {
		return nil, err
	}
	return stats, nil
}

// Payments records payment captures for reconciliation.
type Payments struct {
	coll *mongo.Collection
}

// NewPayments returns a payment store over the payments collection.
func NewPayments(db *mongo.Database) *Payments {
	return &Payments{coll: db.Collection("payments")}
}

// InsertCapture appends one capture record.
func (p *Payments) InsertCapture(ctx context.Context, capture *models.PaymentCapture) error {
	if capture.CreatedAt.IsZero() {
		capture.CreatedAt = time.Now()
	}
	_, err := p.coll.InsertOne(ctx, capture)
	return err
}
