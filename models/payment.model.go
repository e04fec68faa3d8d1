package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentCapture is the audit record written when a gateway payment is
// recorded against an order. The order itself carries the correlation ids in
// its PaymentResult; this collection exists for reconciliation.
type PaymentCapture struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderID          primitive.ObjectID `bson:"order_id" json:"orderId"`
	Reference        string             `bson:"reference" json:"reference"`
	GatewayOrderID   string             `bson:"gateway_order_id,omitempty" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string             `bson:"gateway_payment_id,omitempty" json:"gatewayPaymentId,omitempty"`
	Amount           float64            `bson:"amount" json:"amount"`
	Method           string             `bson:"method" json:"method"`
	Status           string             `bson:"status" json:"status"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
}
