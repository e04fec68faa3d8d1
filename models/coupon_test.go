package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponTableValidate(t *testing.T) {
	table := DefaultCoupons()

	coupon, err := table.Validate("SAVE10", 1000)
	require.NoError(t, err)
	assert.Equal(t, CouponTypePercentage, coupon.Type)

	// Lookup is case-insensitive.
	_, err = table.Validate("save10", 1000)
	assert.NoError(t, err)

	_, err = table.Validate("NOPE", 1000)
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestCouponMinOrder(t *testing.T) {
	table := DefaultCoupons()

	_, err := table.Validate("SAVE500", 4000)
	var minErr *MinOrderError
	require.True(t, errors.As(err, &minErr))
	assert.Equal(t, float64(5000), minErr.MinOrder)

	coupon, err := table.Validate("SAVE500", 6000)
	require.NoError(t, err)
	assert.Equal(t, float64(500), coupon.DiscountAmount(6000))
}

func TestDiscountAmount(t *testing.T) {
	percent := Coupon{Discount: 10, Type: CouponTypePercentage}
	assert.Equal(t, float64(150), percent.DiscountAmount(1500))

	fixed := Coupon{Discount: 500, Type: CouponTypeFixed}
	assert.Equal(t, float64(500), fixed.DiscountAmount(6000))

	// A fixed discount never exceeds the subtotal.
	assert.Equal(t, float64(300), fixed.DiscountAmount(300))
}
