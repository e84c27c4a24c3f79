package pricing

import (
	"math/rand"
	"testing"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/hay-kot/criterio"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s got %s %v", want, got.String(), msg)
}

func TestCalculate_DefaultGeneralConditions(t *testing.T) {
	c := Calculate(Input{
		LineItems:            []domain.LineItem{{Name: "Framing", Quantity: dec("2"), UnitPrice: dec("100")}},
		GeneralConditionsPct: "",
		Supervision:          domain.Supervision{Type: domain.SupervisionNone},
	})

	assertDecimal(t, "200", c.ItemsTotal)
	assertDecimal(t, "18.5", c.GeneralConditionsPct)
	assertDecimal(t, "37", c.GeneralConditions)
	assertDecimal(t, "0", c.SupervisionFee)
	assertDecimal(t, "237", c.TotalCost)
}

func TestCalculate_SupervisionAndDiscount(t *testing.T) {
	c := Calculate(Input{
		LineItems: []domain.LineItem{
			{Name: "Tile", Quantity: dec("10"), UnitPrice: dec("45.5")},
			{Name: "Grout", Quantity: dec("3"), UnitPrice: dec("12")},
		},
		GeneralConditionsPct: "10",
		Supervision:          domain.Supervision{Type: domain.SupervisionPartTime, Weeks: dec("2")},
		Discount:             dec("100"),
	})

	// items 491, supervision 1450, gc 194.1
	assertDecimal(t, "491", c.ItemsTotal)
	assertDecimal(t, "1450", c.SupervisionFee)
	assertDecimal(t, "194.1", c.GeneralConditions)
	assertDecimal(t, "2035.1", c.TotalCost)
}

func TestSupervisionFee(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		typ   domain.SupervisionType
		weeks string
		want  string
	}{
		{domain.SupervisionNone, "4", "0"},
		{domain.SupervisionPartTime, "4", "2900"},
		{domain.SupervisionFullTime, "3", "4350"},
		{domain.SupervisionFullTime, "0", "0"},
		{domain.SupervisionFullTime, "-2", "0"},
		{domain.SupervisionType("weekend"), "2", "0"},
	}
	for _, tc := range cases {
		got := p.SupervisionFee(domain.Supervision{Type: tc.typ, Weeks: dec(tc.weeks)})
		assertDecimal(t, tc.want, got, tc.typ, tc.weeks)
	}
}

func TestGeneralConditionsPct_BlankAndMalformedMatchDefault(t *testing.T) {
	items := []domain.LineItem{{Quantity: dec("3"), UnitPrice: dec("333.33")}}
	sup := domain.Supervision{Type: domain.SupervisionFullTime, Weeks: dec("1")}
	want := Calculate(Input{LineItems: items, GeneralConditionsPct: "18.5", Supervision: sup})

	for _, raw := range []string{"", "   ", "abc", "18.5%", "n/a"} {
		got := Calculate(Input{LineItems: items, GeneralConditionsPct: raw, Supervision: sup})
		assert.True(t, want.TotalCost.Equal(got.TotalCost), "raw=%q", raw)
	}
}

func TestGeneralConditionsPct_ZeroIsNotDefaulted(t *testing.T) {
	c := Calculate(Input{
		LineItems:            []domain.LineItem{{Quantity: dec("1"), UnitPrice: dec("500")}},
		GeneralConditionsPct: "0",
	})
	assertDecimal(t, "500", c.TotalCost)
}

func TestParseAmount_MalformedIsZero(t *testing.T) {
	assertDecimal(t, "0", ParseAmount(""))
	assertDecimal(t, "0", ParseAmount("twelve"))
	assertDecimal(t, "1250.5", ParseAmount("$1,250.50"))
	assertDecimal(t, "-3", ParseAmount(" -3 "))

	li := LineItemFromStrings(" Drywall ", "x", "40")
	assert.Equal(t, "Drywall", li.Name)
	assertDecimal(t, "0", li.Price())
}

func TestParseSupervisionType(t *testing.T) {
	assert.Equal(t, domain.SupervisionPartTime, ParseSupervisionType("Part-Time"))
	assert.Equal(t, domain.SupervisionFullTime, ParseSupervisionType("full_time"))
	assert.Equal(t, domain.SupervisionNone, ParseSupervisionType("sometimes"))
}

func TestCalculate_NoSupervisionNoDiscountProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rng.Intn(6)
		items := make([]domain.LineItem, n)
		for j := range items {
			items[j] = domain.LineItem{
				Quantity:  decimal.NewFromInt(int64(rng.Intn(50))),
				UnitPrice: decimal.NewFromFloat(float64(rng.Intn(100000)) / 100),
			}
		}
		pct := decimal.NewFromFloat(float64(rng.Intn(400)) / 10)

		c := Calculate(Input{LineItems: items, GeneralConditionsPct: pct.String()})
		want := ItemsTotal(items).Mul(decimal.NewFromInt(1).Add(pct.Div(hundred)))
		assert.True(t, want.Sub(c.TotalCost).Abs().LessThan(dec("0.000001")),
			"iteration %d: want %s got %s", i, want, c.TotalCost)
	}
}

func TestValidateRanges(t *testing.T) {
	p := DefaultPolicy()
	ok := Input{LineItems: []domain.LineItem{{Quantity: dec("1"), UnitPrice: dec("100")}}, Discount: dec("10")}
	require.NoError(t, p.ValidateRanges(ok))

	bad := Input{
		LineItems:   []domain.LineItem{{Quantity: dec("-1"), UnitPrice: dec("100")}},
		Supervision: domain.Supervision{Type: domain.SupervisionPartTime, Weeks: dec("-1")},
		Discount:    dec("5000"),
	}
	err := p.ValidateRanges(bad)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ErrValidation))

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	var fields []string
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "line_items[0].quantity")
	assert.Contains(t, fields, "supervision.weeks")
	assert.Contains(t, fields, "discount")
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "237.00", Display(dec("237")))
	assert.Equal(t, "0.33", Display(dec("1").Div(dec("3"))))
}
