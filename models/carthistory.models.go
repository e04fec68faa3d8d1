package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartHistoryTTL is the retention window for cart audit records.
const CartHistoryTTL = 90 * 24 * time.Hour

// Cart history actions.
const (
	CartActionAdd      = "add"
	CartActionUpdate   = "update"
	CartActionRemove   = "remove"
	CartActionClear    = "clear"
	CartActionSync     = "sync"
	CartActionCheckout = "checkout"
)

// CartSnapshot captures the cart totals at the moment of a mutation.
type CartSnapshot struct {
	TotalPrice         float64        `bson:"total_price" json:"totalPrice"`
	TotalOriginalPrice float64        `bson:"total_original_price" json:"totalOriginalPrice"`
	TotalSavings       float64        `bson:"total_savings" json:"totalSavings"`
	TotalItems         int            `bson:"total_items" json:"totalItems"`
	AppliedCoupon      *AppliedCoupon `bson:"applied_coupon,omitempty" json:"appliedCoupon,omitempty"`
}

// CartHistory is an append-only audit record of one cart mutation. Live cart
// logic never reads it back.
type CartHistory struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID       primitive.ObjectID `bson:"user_id" json:"userId"`
	Items        []CartItem         `bson:"items" json:"items"`
	Action       string             `bson:"action" json:"action"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	CartSnapshot CartSnapshot       `bson:"cart_snapshot" json:"cartSnapshot"`
}

// SnapshotOf builds the totals snapshot recorded alongside a history entry.
func SnapshotOf(cart *Cart) CartSnapshot {
	return CartSnapshot{
		TotalPrice:         cart.TotalPrice,
		TotalOriginalPrice: cart.TotalOriginalPrice,
		TotalSavings:       cart.TotalSavings,
		TotalItems:         cart.TotalItems,
		AppliedCoupon:      cart.AppliedCoupon,
	}
}
