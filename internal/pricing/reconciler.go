// Package pricing keeps a product's original price, discount percent and final
// price consistent while a merchant edits any one of them.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Field string

const (
	FieldOriginalPrice   Field = "original_price"
	FieldDiscountPercent Field = "discount_percent"
	FieldFinalPrice      Field = "discounted_price"
)

var ErrUnknownField = errors.New("unknown pricing field")

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// Form is the editable pricing state. Any field may be unset.
type Form struct {
	OriginalPrice   decimal.NullDecimal `json:"original_price"`
	DiscountPercent Percent             `json:"discount_percent"`
	DiscountedPrice decimal.NullDecimal `json:"discounted_price"`
}

// OnOriginalPriceChanged records a new list price and re-derives the final
// price. The discount percent is never touched.
func (f *Form) OnOriginalPriceChanged(raw string) {
	v, ok := parseMoney(raw)
	if !ok {
		f.OriginalPrice = decimal.NullDecimal{}
		return
	}
	f.OriginalPrice = decimal.NewNullDecimal(v)
	if f.DiscountPercent.Valid {
		f.DiscountedPrice = decimal.NewNullDecimal(Discounted(v, f.DiscountPercent.Value))
		return
	}
	f.DiscountedPrice = decimal.NewNullDecimal(v)
}

// OnDiscountPercentChanged records a new percent, clamped to [0,100], and
// re-derives the final price when a list price is known.
func (f *Form) OnDiscountPercentChanged(raw string) {
	p, ok := parsePercent(raw)
	if !ok {
		f.DiscountPercent = Percent{}
		return
	}
	f.DiscountPercent = NewPercent(p)
	if f.OriginalPrice.Valid {
		f.DiscountedPrice = decimal.NewNullDecimal(Discounted(f.OriginalPrice.Decimal, p))
	}
}

// OnFinalPriceChanged records a new final price and back-derives the percent
// from a positive list price. The derived percent is not clamped: a final
// price above the list price yields a negative percent.
func (f *Form) OnFinalPriceChanged(raw string) {
	v, ok := parseMoney(raw)
	if !ok {
		f.DiscountedPrice = decimal.NullDecimal{}
		return
	}
	f.DiscountedPrice = decimal.NewNullDecimal(v)
	if f.OriginalPrice.Valid && f.OriginalPrice.Decimal.IsPositive() {
		f.DiscountPercent = NewPercent(PercentOff(f.OriginalPrice.Decimal, v))
	}
}

// Consistent reports whether all three fields are set and agree to the cent.
func (f Form) Consistent() bool {
	if !f.OriginalPrice.Valid || !f.DiscountPercent.Valid || !f.DiscountedPrice.Valid {
		return false
	}
	want := Discounted(f.OriginalPrice.Decimal, f.DiscountPercent.Value)
	return want.Equal(f.DiscountedPrice.Decimal.Round(2))
}

// Reconcile applies one edit identified by field name.
func Reconcile(f Form, field Field, raw string) (Form, error) {
	switch field {
	case FieldOriginalPrice:
		f.OnOriginalPriceChanged(raw)
	case FieldDiscountPercent:
		f.OnDiscountPercentChanged(raw)
	case FieldFinalPrice:
		f.OnFinalPriceChanged(raw)
	default:
		return f, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return f, nil
}

// Discounted returns original × (1 − percent/100) rounded to cents.
func Discounted(original decimal.Decimal, percent int64) decimal.Decimal {
	factor := hundred.Sub(decimal.NewFromInt(percent)).Div(hundred)
	return roundHalfUp(original.Mul(factor), 2)
}

// PercentOff returns ((original − final) / original) × 100 rounded to an
// integer. original must be positive.
func PercentOff(original, final decimal.Decimal) int64 {
	p := original.Sub(final).Mul(hundred).Div(original)
	return roundHalfUp(p, 0).IntPart()
}

func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

func parseMoney(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	if v.IsNegative() {
		return decimal.Zero, true
	}
	return v, true
}

func parsePercent(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	p := roundHalfUp(v, 0).IntPart()
	switch {
	case p < 0:
		p = 0
	case p > 100:
		p = 100
	}
	return p, true
}
