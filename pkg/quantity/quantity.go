// Package quantity checks ledger quantities and inventory counts against the precision of the
// columns that store them, so out-of-range input is rejected before it reaches the database.
package quantity

import (
	"math"

	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of decimal places stored for every ledger quantity (numeric(12,3)).
	Scale = 3
	// IntegerDigits is the number of digits numeric(12,3) allows before the decimal point.
	IntegerDigits = 9
	// MaxCount is the largest on-hand or target a snapshot integer column can hold.
	MaxCount = math.MaxInt32
)

var limit = decimal.New(1, IntegerDigits)

// Positive validates a quantity that must be greater than zero.
func Positive(field string, q decimal.Decimal) error {
	if !q.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must be greater than zero")
	}
	return fits(field, q)
}

// NonNegative validates a quantity that may be zero.
func NonNegative(field string, q decimal.Decimal) error {
	if q.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must not be negative")
	}
	return fits(field, q)
}

// Count validates an inventory count or target.
func Count(field string, value int) error {
	if value < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must not be negative")
	}
	if value > MaxCount {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" is too large").
			WithDetails(map[string]any{"field": field, "max": MaxCount})
	}
	return nil
}

func fits(field string, q decimal.Decimal) error {
	if !q.Equal(q.Truncate(Scale)) {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" has too many decimal places").
			WithDetails(map[string]any{"field": field, "max_decimal_places": Scale})
	}
	if q.Abs().GreaterThanOrEqual(limit) {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" is too large").
			WithDetails(map[string]any{"field": field, "max_integer_digits": IntegerDigits})
	}
	return nil
}
