package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SpecItem is a single labeled specification value, e.g. "Cores: 8".
type SpecItem struct {
	Label string `bson:"label" json:"label"`
	Value string `bson:"value" json:"value"`
	Unit  string `bson:"unit,omitempty" json:"unit,omitempty"`
}

// SpecGroup groups specification items under a category heading.
type SpecGroup struct {
	Category string     `bson:"category" json:"category"`
	Items    []SpecItem `bson:"items" json:"items"`
}

// BuilderSpecs carries the compatibility attributes the PC builder matches
// components on. Only products tagged with a platform show up in builder
// component listings.
type BuilderSpecs struct {
	Platform             string   `bson:"platform" json:"platform"`
	Socket               string   `bson:"socket,omitempty" json:"socket,omitempty"`
	Chipset              string   `bson:"chipset,omitempty" json:"chipset,omitempty"`
	MemoryType           string   `bson:"memory_type,omitempty" json:"memoryType,omitempty"`
	SupportedMemoryTypes []string `bson:"supported_memory_types,omitempty" json:"supportedMemoryTypes,omitempty"`
	// Wattage is the rated output for power supplies.
	Wattage int `bson:"wattage,omitempty" json:"wattage,omitempty"`
	// PowerDraw is the TDP for processors and graphics cards.
	PowerDraw int `bson:"power_draw,omitempty" json:"powerDraw,omitempty"`
}

// Product is the catalog document. Price and Quantity are the authoritative
// values the cart and order workflows validate against.
type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name           string             `bson:"name" json:"name"`
	Brand          string             `bson:"brand" json:"brand"`
	Category       string             `bson:"category" json:"category"`
	SubCategory    string             `bson:"sub_category,omitempty" json:"subCategory,omitempty"`
	Price          float64            `bson:"price" json:"price"`
	OriginalPrice  float64            `bson:"original_price,omitempty" json:"originalPrice,omitempty"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	IsActive       bool               `bson:"is_active" json:"isActive"`
	Images         []string           `bson:"images" json:"images"`
	KeyFeatures    []string           `bson:"key_features,omitempty" json:"keyFeatures,omitempty"`
	Specifications []SpecGroup        `bson:"specifications,omitempty" json:"specifications,omitempty"`
	BuilderSpecs   *BuilderSpecs      `bson:"builder_specs,omitempty" json:"builderSpecs,omitempty"`
	Rating         float64            `bson:"rating,omitempty" json:"rating,omitempty"`
	NumReviews     int                `bson:"num_reviews,omitempty" json:"numReviews,omitempty"`
	CreatedAt      time.Time          `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	UpdatedAt      time.Time          `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// ValidateProduct reports the missing or malformed required fields of a
// product submitted through the admin API.
func ValidateProduct(p *Product) []string {
	var issues []string
	if p.Name == "" {
		issues = append(issues, "name is required")
	}
	if p.Brand == "" {
		issues = append(issues, "brand is required")
	}
	if p.Category == "" {
		issues = append(issues, "category is required")
	}
	if p.Price < 0 {
		issues = append(issues, "price cannot be negative")
	}
	if p.OriginalPrice != 0 && p.OriginalPrice < p.Price {
		issues = append(issues, "original price must be greater than or equal to price")
	}
	if p.Quantity < 0 {
		issues = append(issues, "quantity cannot be negative")
	}
	if len(p.Images) == 0 {
		issues = append(issues, "at least one image is required")
	}
	return issues
}
