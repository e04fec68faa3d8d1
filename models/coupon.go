package models

import (
	"errors"
	"fmt"
	"strings"
)

// Coupon types.
const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// ErrInvalidCoupon is returned for unknown coupon codes.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// MinOrderError is returned when the cart total is below the coupon's
// minimum order amount.
type MinOrderError struct {
	MinOrder float64
}

func (e *MinOrderError) Error() string {
	return fmt.Sprintf("minimum order amount of %.0f required", e.MinOrder)
}

// Coupon is one entry of the static coupon configuration.
type Coupon struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Type     string  `json:"type"`
	MinOrder float64 `json:"minOrder"`
}

// DiscountAmount computes the discount this coupon grants on the given
// subtotal. Fixed coupons never exceed the subtotal.
func (c Coupon) DiscountAmount(subtotal float64) float64 {
	if c.Type == CouponTypePercentage {
		return subtotal * c.Discount / 100
	}
	if c.Discount > subtotal {
		return subtotal
	}
	return c.Discount
}

// CouponTable maps upper-cased coupon codes to their definitions. It is
// injected into the cart controller at construction.
type CouponTable map[string]Coupon

// DefaultCoupons returns the built-in coupon configuration.
func DefaultCoupons() CouponTable {
	return CouponTable{
		"SAVE10":    {Code: "SAVE10", Discount: 10, Type: CouponTypePercentage},
		"SAVE500":   {Code: "SAVE500", Discount: 500, Type: CouponTypeFixed, MinOrder: 5000},
		"FIRST20":   {Code: "FIRST20", Discount: 20, Type: CouponTypePercentage, MinOrder: 10000},
		"WELCOME15": {Code: "WELCOME15", Discount: 15, Type: CouponTypePercentage},
	}
}

// Validate looks up the code and checks the cart total against the coupon's
// minimum order amount. The lookup is case-insensitive.
func (t CouponTable) Validate(code string, cartTotal float64) (Coupon, error) {
	coupon, ok := t[strings.ToUpper(code)]
	if !ok {
		return Coupon{}, ErrInvalidCoupon
	}
	if cartTotal < coupon.MinOrder {
		return Coupon{}, &MinOrderError{MinOrder: coupon.MinOrder}
	}
	return coupon, nil
}
