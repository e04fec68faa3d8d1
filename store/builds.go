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

// Builds is the MongoDB store for PC builder configurations.
type Builds struct {
	coll *mongo.Collection
}

// NewBuilds returns a build store over the pc_configurations collection.
func NewBuilds(db *mongo.Database) *Builds {
	return &Builds{coll: db.Collection("pc_configurations")}
}

// EnsureIndexes creates the owner and template lookup indexes.
func (b *Builds) EnsureIndexes(ctx context.Context) error {
	_, err := b.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "platform", Value: 1}, {Key: "status", Value: 1}, {Key: "is_public", Value: 1}}},
	})
	return err
}

// Insert creates a configuration and fills in its id.
func (b *Builds) Insert(ctx context.Context, cfg *models.PCConfiguration) error {
	res, err := b.coll.InsertOne(ctx, cfg)
	if err != nil {
		return err
	}
	cfg.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID looks up one configuration.
func (b *Builds) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PCConfiguration, error) {
	var cfg models.PCConfiguration
	err := b.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Update replaces the stored configuration.
func (b *Builds) Update(ctx context.Context, cfg *models.PCConfiguration) error {
	cfg.UpdatedAt = time.Now()
	res, err := b.coll.ReplaceOne(ctx, bson.M{"_id": cfg.ID}, cfg)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a user's configurations, most recently touched first.
func (b *Builds) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PCConfiguration, error) {
	return b.list(ctx, bson.M{"user_id": userID}, nil)
}

// ListBySession returns an anonymous session's configurations.
func (b *Builds) ListBySession(ctx context.Context, sessionID string) ([]models.PCConfiguration, error) {
	return b.list(ctx, bson.M{"session_id": sessionID}, nil)
}

// ListTemplates returns public completed builds matching the query, cheapest
// first.
func (b *Builds) ListTemplates(ctx context.Context, q TemplateQuery) ([]models.PCConfiguration, error) {
	filter := bson.M{
		"platform":  q.Platform,
		"status":    models.BuildStatusCompleted,
		"is_public": true,
	}
	if q.UseCase != "" {
		filter["use_case"] = q.UseCase
	}
	if q.BudgetMax > 0 {
		filter["pricing.total"] = bson.M{"$gte": q.BudgetMin, "$lte": q.BudgetMax}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "pricing.total", Value: 1}}).
		SetLimit(int64(limit))
	return b.list(ctx, filter, opts)
}

func (b *Builds) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.PCConfiguration, error) {
	if opts == nil {
		opts = options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	}
	cursor, err := b.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var configs []models.PCConfiguration
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}
