package pricing

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/hay-kot/criterio"
	"github.com/shopspring/decimal"
)

var errNegative = errors.New("must not be negative")

func nonNegative(d decimal.Decimal) error {
	if d.IsNegative() {
		return errNegative
	}
	return nil
}

// ValidateRanges rejects negative quantities, prices, weeks and discounts,
// and a discount larger than the pre-discount total. It is opt-in: the
// calculator itself accepts any input.
func (p Policy) ValidateRanges(in Input) error {
	var b criterio.FieldErrorsBuilder
	for i, it := range in.LineItems {
		if err := nonNegative(it.Quantity); err != nil {
			b = b.Append(fmt.Sprintf("line_items[%d].quantity", i), err)
		}
		if err := nonNegative(it.UnitPrice); err != nil {
			b = b.Append(fmt.Sprintf("line_items[%d].unit_price", i), err)
		}
	}
	if err := nonNegative(in.Supervision.Weeks); err != nil {
		b = b.Append("supervision.weeks", err)
	}
	if err := nonNegative(in.Discount); err != nil {
		b = b.Append("discount", err)
	}

	c := p.Calculate(in)
	gross := c.TotalCost.Add(c.Discount)
	if in.Discount.GreaterThan(gross) {
		b = b.Append("discount", fmt.Errorf("exceeds total %s", gross.StringFixed(2)))
	}

	if err := b.ToError(); err != nil {
		return domain.ValidationError(err, "pricing input out of range")
	}
	return nil
}

// Display formats an amount to two decimal places.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
