// Package pricing turns priced line items and fee parameters into a cost
// breakdown. All arithmetic is exact decimal; rounding happens only when a
// caller formats a value for display.
package pricing

import (
	"strings"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the tunable pricing constants.
type Policy struct {
	PartTimeWeeklyRate          decimal.Decimal
	FullTimeWeeklyRate          decimal.Decimal
	DefaultGeneralConditionsPct decimal.Decimal
}

// DefaultPolicy returns the standard rates: 725 part time, 1450 full time,
// 18.5% general conditions.
func DefaultPolicy() Policy {
	return Policy{
		PartTimeWeeklyRate:          decimal.NewFromInt(725),
		FullTimeWeeklyRate:          decimal.NewFromInt(1450),
		DefaultGeneralConditionsPct: decimal.RequireFromString("18.5"),
	}
}

// Input is everything the calculator needs. GeneralConditionsPct is the raw
// user value so blank and malformed entries resolve to the policy default.
type Input struct {
	LineItems            []domain.LineItem
	GeneralConditionsPct string
	Supervision          domain.Supervision
	Discount             decimal.Decimal
}

// Calculate prices in with DefaultPolicy.
func Calculate(in Input) domain.CostBreakdown {
	return DefaultPolicy().Calculate(in)
}

// Calculate prices in: general conditions apply to items plus supervision,
// and the discount comes off the end.
func (p Policy) Calculate(in Input) domain.CostBreakdown {
	items := ItemsTotal(in.LineItems)
	supervision := p.SupervisionFee(in.Supervision)
	pct := p.ResolveGeneralConditionsPct(in.GeneralConditionsPct)
	gc := items.Add(supervision).Mul(pct).Div(hundred)

	return domain.CostBreakdown{
		ItemsTotal:           items,
		SupervisionFee:       supervision,
		GeneralConditionsPct: pct,
		GeneralConditions:    gc,
		Discount:             in.Discount,
		TotalCost:            items.Add(gc).Add(supervision).Sub(in.Discount),
	}
}

// ItemsTotal is the sum of quantity times unit price.
func ItemsTotal(items []domain.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price())
	}
	return total
}

// SupervisionFee is weeks times the weekly rate for the supervision type.
// Non-positive weeks and unknown types cost nothing.
func (p Policy) SupervisionFee(s domain.Supervision) decimal.Decimal {
	if !s.Weeks.IsPositive() {
		return decimal.Zero
	}
	switch s.Type {
	case domain.SupervisionPartTime:
		return s.Weeks.Mul(p.PartTimeWeeklyRate)
	case domain.SupervisionFullTime:
		return s.Weeks.Mul(p.FullTimeWeeklyRate)
	default:
		return decimal.Zero
	}
}

// ResolveGeneralConditionsPct parses raw, falling back to the policy default
// when raw is blank or not a number.
func (p Policy) ResolveGeneralConditionsPct(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return p.DefaultGeneralConditionsPct
	}
	return d
}

// ParseAmount coerces a user-entered number. Blank or malformed input is 0.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseSupervisionType maps unknown strings to SupervisionNone.
func ParseSupervisionType(raw string) domain.SupervisionType {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	if domain.ValidSupervisionTypes[s] {
		return domain.SupervisionType(s)
	}
	return domain.SupervisionNone
}

// LineItemFromStrings builds a line item from raw form values.
func LineItemFromStrings(name, quantity, unitPrice string) domain.LineItem {
	return domain.LineItem{
		Name:      strings.TrimSpace(name),
		Quantity:  ParseAmount(quantity),
		UnitPrice: ParseAmount(unitPrice),
	}
}
