package bakery

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const priceScale = 2

// roundPrice rounds half away from zero to two decimal places. The float
// is converted through its shortest decimal representation first, so
// 20.146 becomes 20.15 and 1.005 becomes 1.01.
func roundPrice(amount float64) (decimal.Decimal, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return decimal.Zero, fmt.Errorf("%w: price must be a finite number", ErrInvalidArgument)
	}
	if amount < 0 {
		return decimal.Zero, fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	return decimal.NewFromFloat(amount).Round(priceScale), nil
}
