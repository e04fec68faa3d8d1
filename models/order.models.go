package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCOD        = "cod"
	PaymentMethodOnline     = "online"
	PaymentMethodCard       = "card"
	PaymentMethodUPI        = "upi"
	PaymentMethodNetbanking = "netbanking"
)

// Order lifecycle guard errors.
var (
	ErrAlreadyPaid           = errors.New("order is already paid")
	ErrAlreadyDelivered      = errors.New("order is already delivered")
	ErrAlreadyCancelled      = errors.New("order is already cancelled")
	ErrCannotCancelDelivered = errors.New("cannot cancel a delivered order")
	ErrCannotCancelShipped   = errors.New("cannot cancel an order that has shipped")
)

// ValidOrderStatus reports whether s is one of the five order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodOnline, PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetbanking:
		return true
	}
	return false
}

// OrderItem is one line of an order. Price is frozen at order creation and
// never recalculated from the catalog.
type OrderItem struct {
	Product       primitive.ObjectID `bson:"product" json:"product"`
	Name          string             `bson:"name,omitempty" json:"name,omitempty"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	Price         float64            `bson:"price" json:"price"`
	SelectedColor string             `bson:"selected_color,omitempty" json:"selectedColor,omitempty"`
	SelectedSize  string             `bson:"selected_size,omitempty" json:"selectedSize,omitempty"`
}

// ShippingAddress is the structured delivery address captured with an order.
type ShippingAddress struct {
	FirstName string `bson:"first_name" json:"firstName"`
	LastName  string `bson:"last_name" json:"lastName"`
	Company   string `bson:"company,omitempty" json:"company,omitempty"`
	Address   string `bson:"address" json:"address"`
	Apartment string `bson:"apartment,omitempty" json:"apartment,omitempty"`
	City      string `bson:"city" json:"city"`
	State     string `bson:"state" json:"state"`
	Pincode   string `bson:"pincode" json:"pincode"`
	Phone     string `bson:"phone" json:"phone"`
	Email     string `bson:"email" json:"email"`
}

// Validate reports the missing required address fields.
func (a *ShippingAddress) Validate() []string {
	var issues []string
	if a.FirstName == "" {
		issues = append(issues, "first name is required")
	}
	if a.LastName == "" {
		issues = append(issues, "last name is required")
	}
	if a.Address == "" {
		issues = append(issues, "address is required")
	}
	if a.City == "" {
		issues = append(issues, "city is required")
	}
	if a.State == "" {
		issues = append(issues, "state is required")
	}
	if a.Pincode == "" {
		issues = append(issues, "pincode is required")
	}
	if a.Phone == "" {
		issues = append(issues, "phone is required")
	}
	if a.Email == "" {
		issues = append(issues, "email is required")
	}
	return issues
}

// PaymentResult holds the gateway correlation ids recorded at capture time.
type PaymentResult struct {
	Reference        string    `bson:"reference,omitempty" json:"reference,omitempty"`
	Status           string    `bson:"status,omitempty" json:"status,omitempty"`
	GatewayOrderID   string    `bson:"gateway_order_id,omitempty" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string    `bson:"gateway_payment_id,omitempty" json:"gatewayPaymentId,omitempty"`
	GatewaySignature string    `bson:"gateway_signature,omitempty" json:"gatewaySignature,omitempty"`
	UpdateTime       time.Time `bson:"update_time,omitempty" json:"updateTime,omitempty"`
}

// StatusEntry is one record of the append-only status history.
type StatusEntry struct {
	Status    string    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Order is an immutable-once-created purchase record. After creation it is
// mutated only through the status lifecycle methods below.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	OrderItems      []OrderItem        `bson:"order_items" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod   string             `bson:"payment_method" json:"paymentMethod"`
	TotalPrice      float64            `bson:"total_price" json:"totalPrice"`
	Status          string             `bson:"status" json:"status"`
	IsPaid          bool               `bson:"is_paid" json:"isPaid"`
	PaidAt          time.Time          `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"is_delivered" json:"isDelivered"`
	DeliveredAt     time.Time          `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	CancelledAt     time.Time          `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	PaymentResult   *PaymentResult     `bson:"payment_result,omitempty" json:"paymentResult,omitempty"`
	StatusHistory   []StatusEntry      `bson:"status_history" json:"statusHistory"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// TotalItems sums the quantities across all order lines.
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.OrderItems {
		total += item.Quantity
	}
	return total
}

// CanBeCancelled reports whether the order is still in a cancellable state.
func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusProcessing
}

// SetStatus transitions the order to the given status and appends a history
// entry when the status actually changed. Delivered also raises the
// delivered flag; Processing backfills paidAt for orders already paid.
// Returns true when the status changed.
func (o *Order) SetStatus(status string, now time.Time) bool {
	if status == StatusDelivered {
		if !o.IsDelivered {
			o.IsDelivered = true
		}
		if o.DeliveredAt.IsZero() {
			o.DeliveredAt = now
		}
	}
	if status == StatusProcessing && o.IsPaid && o.PaidAt.IsZero() {
		o.PaidAt = now
	}
	if status == StatusCancelled && o.CancelledAt.IsZero() {
		o.CancelledAt = now
	}
	if o.Status == status {
		return false
	}
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, StatusEntry{Status: status, Timestamp: now})
	return true
}

// MarkPaid raises the paid flag exactly once and advances a Pending order to
// Processing.
func (o *Order) MarkPaid(now time.Time) error {
	if o.IsPaid {
		return ErrAlreadyPaid
	}
	o.IsPaid = true
	o.PaidAt = now
	if o.Status == StatusPending {
		o.SetStatus(StatusProcessing, now)
	}
	return nil
}

// MarkDelivered raises the delivered flag exactly once and forces the status
// to Delivered regardless of the prior status.
func (o *Order) MarkDelivered(now time.Time) error {
	if o.IsDelivered {
		return ErrAlreadyDelivered
	}
	o.IsDelivered = true
	o.DeliveredAt = now
	o.SetStatus(StatusDelivered, now)
	return nil
}

// Cancel transitions the order into Cancelled. Only Pending and Processing
// orders can be cancelled.
func (o *Order) Cancel(now time.Time) error {
	switch o.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusDelivered:
		return ErrCannotCancelDelivered
	case StatusShipped:
		return ErrCannotCancelShipped
	}
	o.SetStatus(StatusCancelled, now)
	return nil
}

// OrderStats is the admin dashboard aggregate.
type OrderStats struct {
	TotalOrders  int64            `json:"totalOrders"`
	ByStatus     map[string]int64 `json:"ordersByStatus"`
	PaidOrders   int64            `json:"paidOrders"`
	UnpaidOrders int64            `json:"unpaidOrders"`
	TotalRevenue float64          `json:"totalRevenue"`
	RecentOrders int64            `json:"recentOrders"`
}
