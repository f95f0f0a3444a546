package pricing

import (
	"github.com/campusmerch-pos/api/internal/client"
	"github.com/campusmerch-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// discountRate applies to alumni members, current students and faculty.
var discountRate = decimal.RequireFromString("0.9")

// Eligible reports whether the identity category gets the 10% discount.
func Eligible(identity string) bool {
	switch identity {
	case enum.IdentityAlumni, enum.IdentityStudent, enum.IdentityFaculty:
		return true
	}
	return false
}

// Discounted applies the identity discount to an integer total, rounding down
// to the nearest integer. Non-eligible identities pass through unchanged.
func Discounted(identity string, total int) int {
	if !Eligible(identity) {
		return total
	}
	d := decimal.NewFromInt(int64(total)).Mul(discountRate).Floor()
	return int(d.IntPart())
}

// Delta is the exchange price computation: both totals after the identity
// discount, and their difference.
type Delta struct {
	OldTotal int
	NewTotal int
	Diff     int
}

// PriceLookup resolves a current unit price by product display name.
type PriceLookup func(name string) (int, bool)

// ExchangeDelta computes the exchange price delta. Each list is summed at
// current prices, discounted and floored independently, and only then
// subtracted. Discount-then-floor-then-subtract is a business rule, not an
// approximation: flooring the difference instead would change results.
// Unknown product names price at 0, matching the permissive historical
// behavior.
func ExchangeDelta(priceOf PriceLookup, identity string, oldItems, newItems []client.Item) Delta {
	oldTotal := Discounted(identity, rawTotal(priceOf, oldItems))
	newTotal := Discounted(identity, rawTotal(priceOf, newItems))
	return Delta{
		OldTotal: oldTotal,
		NewTotal: newTotal,
		Diff:     newTotal - oldTotal,
	}
}

func rawTotal(priceOf PriceLookup, items []client.Item) int {
	total := 0
	for _, item := range items {
		price, ok := priceOf(item.Name)
		if !ok {
			continue
		}
		total += price * item.Qty
	}
	return total
}
