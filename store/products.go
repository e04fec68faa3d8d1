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

// Products is the MongoDB product store. It implements Catalog and carries
// the admin CRUD operations on top.
type Products struct {
	coll *mongo.Collection
}

// NewProducts returns a product store over the products collection.
func NewProducts(db *mongo.Database) *Products {
	return &Products{coll: db.Collection("products")}
}

// ProductFilter narrows List results.
type ProductFilter struct {
	Category   string
	Brand      string
	ActiveOnly bool
	Page       int
	Limit      int
}

// FindProductByID looks up one product.
func (p *Products) FindProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := p.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock atomically subtracts qty from the product's quantity. The
// filter requires quantity >= qty, so a concurrent order can never push
// stock below zero; a failed match reports ErrInsufficientStock (or
// ErrNotFound if the product is gone).
func (p *Products) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := p.coll.UpdateOne(ctx,
		bson.M{"_id": id, "quantity": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"quantity": -qty}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		count, err := p.coll.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStock adds qty back onto the product's quantity.
func (p *Products) RestoreStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := p.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"quantity": qty}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of products matching the filter plus the total count.
func (p *Products) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Brand != "" {
		query["brand"] = filter.Brand
	}
	if filter.ActiveOnly {
		query["is_active"] = true
	}

	total, err := p.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * filter.Limit)).SetLimit(int64(filter.Limit))
	}

	cursor, err := p.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ComponentFilter narrows ListComponents results. Platform matches the
// platform itself or universal parts.
type ComponentFilter struct {
	Platform string
	Category string
	Brand    string
	Socket   string
	Chipset  string
	PriceMin float64
	PriceMax float64
	Limit    int
}

// ListComponents returns active builder-tagged products for a platform,
// cheapest first.
func (p *Products) ListComponents(ctx context.Context, filter ComponentFilter) ([]models.Product, error) {
	query := bson.M{
		"is_active":              true,
		"builder_specs.platform": bson.M{"$in": []string{filter.Platform, models.PlatformUniversal}},
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Brand != "" {
		query["brand"] = filter.Brand
	}
	if filter.Socket != "" {
		query["builder_specs.socket"] = filter.Socket
	}
	if filter.Chipset != "" {
		query["builder_specs.chipset"] = filter.Chipset
	}
	if filter.PriceMin > 0 || filter.PriceMax > 0 {
		price := bson.M{}
		if filter.PriceMin > 0 {
			price["$gte"] = filter.PriceMin
		}
		if filter.PriceMax > 0 {
			price["$lte"] = filter.PriceMax
		}
		query["price"] = price
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "price", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := p.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// BuilderFilters holds the distinct filter values available for a platform's
// component listings.
type BuilderFilters struct {
	Sockets  []string `json:"sockets"`
	Chipsets []string `json:"chipsets"`
	Brands   []string `json:"brands"`
}

// ListBuilderFilters collects the distinct sockets, chipsets and brands of a
// platform's active builder-tagged products.
func (p *Products) ListBuilderFilters(ctx context.Context, platform string) (*BuilderFilters, error) {
	base := bson.M{
		"is_active":              true,
		"builder_specs.platform": bson.M{"$in": []string{platform, models.PlatformUniversal}},
	}
	filters := &BuilderFilters{}
	fields := []struct {
		key string
		out *[]string
	}{
		{"builder_specs.socket", &filters.Sockets},
		{"builder_specs.chipset", &filters.Chipsets},
		{"brand", &filters.Brands},
	}
	for _, f := range fields {
		values, err := p.coll.Distinct(ctx, f.key, base)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if s, ok := v.(string); ok && s != "" {
				*f.out = append(*f.out, s)
			}
		}
	}
	return filters, nil
}

// Insert creates a product and fills in its id and timestamps.
func (p *Products) Insert(ctx context.Context, product *models.Product) error {
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	res, err := p.coll.InsertOne(ctx, product)
	if err != nil {
		return err
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Update replaces the stored product.
func (p *Products) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	res, err := p.coll.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the product.
func (p *Products) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := p.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
