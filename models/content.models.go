package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blog is a published article.
type Blog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title     string             `bson:"title" json:"title"`
	Slug      string             `bson:"slug" json:"slug"`
	Summary   string             `bson:"summary" json:"summary"`
	Content   string             `bson:"content" json:"content"`
	Author    string             `bson:"author,omitempty" json:"author,omitempty"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Tags      []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Published bool               `bson:"published" json:"published"`
	CreatedAt time.Time          `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// DealPricing is the price pair advertised by a deal.
type DealPricing struct {
	OriginalPrice float64 `bson:"original_price" json:"originalPrice"`
	SalePrice     float64 `bson:"sale_price" json:"salePrice"`
}

// DiscountPercent derives the advertised discount from the price pair.
func (p DealPricing) DiscountPercent() float64 {
	if p.OriginalPrice <= 0 {
		return 0
	}
	return (p.OriginalPrice - p.SalePrice) / p.OriginalPrice * 100
}

// Deal is a time-boxed promotional offer for a single product blurb.
type Deal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	ProductName string             `bson:"product_name" json:"productName"`
	Features    []string           `bson:"features,omitempty" json:"features,omitempty"`
	Pricing     DealPricing        `bson:"pricing" json:"pricing"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	StartsAt    time.Time          `bson:"starts_at,omitempty" json:"startsAt,omitempty"`
	EndsAt      time.Time          `bson:"ends_at,omitempty" json:"endsAt,omitempty"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	CreatedAt   time.Time          `bson:"created_at,omitempty" json:"createdAt,omitempty"`
}

// Event is a storefront announcement (sales, launches, meetups).
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	StartsAt    time.Time          `bson:"starts_at" json:"startsAt"`
	EndsAt      time.Time          `bson:"ends_at,omitempty" json:"endsAt,omitempty"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	CreatedAt   time.Time          `bson:"created_at,omitempty" json:"createdAt,omitempty"`
}

// Testimonial is a customer quote shown on the storefront once approved.
type Testimonial struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Title     string             `bson:"title,omitempty" json:"title,omitempty"`
	Quote     string             `bson:"quote" json:"quote"`
	Rating    int                `bson:"rating" json:"rating"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Approved  bool               `bson:"approved" json:"approved"`
	CreatedAt time.Time          `bson:"created_at,omitempty" json:"createdAt,omitempty"`
}

// Slide is one carousel entry on the landing page, ordered by Order.
type Slide struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SlideID     string             `bson:"slide_id" json:"slideId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Image       string             `bson:"image" json:"image"`
	Order       int                `bson:"order" json:"order"`
	ButtonText  string             `bson:"button_text,omitempty" json:"buttonText,omitempty"`
	ButtonLink  string             `bson:"button_link,omitempty" json:"buttonLink,omitempty"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	CreatedAt   time.Time          `bson:"created_at,omitempty" json:"createdAt,omitempty"`
}
