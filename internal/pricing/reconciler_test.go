package pricing

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func assertMoney(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	require.True(t, got.Valid, "expected %s, got unset", want)
	assert.True(t, decimal.RequireFromString(want).Equal(got.Decimal), "expected %s, got %s", want, got.Decimal)
}

func TestOriginalPriceChanged_WithPercent(t *testing.T) {
	f := Form{DiscountPercent: NewPercent(25)}
	f.OnOriginalPriceChanged("12.00")

	assertMoney(t, "12", f.OriginalPrice)
	assertMoney(t, "9", f.DiscountedPrice)
	assert.Equal(t, NewPercent(25), f.DiscountPercent)
}

func TestOriginalPriceChanged_ZeroPercentStillDerives(t *testing.T) {
	f := Form{DiscountPercent: NewPercent(0), DiscountedPrice: money("1.00")}
	f.OnOriginalPriceChanged("4.99")

	assertMoney(t, "4.99", f.DiscountedPrice)
	assert.Equal(t, NewPercent(0), f.DiscountPercent)
}

func TestOriginalPriceChanged_NoPercentMirrors(t *testing.T) {
	var f Form
	f.OnOriginalPriceChanged("7.5")

	assertMoney(t, "7.5", f.DiscountedPrice)
	assert.False(t, f.DiscountPercent.Valid)
}

func TestOriginalPriceChanged_RoundsToCents(t *testing.T) {
	f := Form{DiscountPercent: NewPercent(33)}
	f.OnOriginalPriceChanged("9.99")

	// 9.99 * 0.67 = 6.6933
	assertMoney(t, "6.69", f.DiscountedPrice)
}

func TestDiscountPercentChanged(t *testing.T) {
	f := Form{OriginalPrice: money("20")}
	f.OnDiscountPercentChanged("15")

	assert.Equal(t, NewPercent(15), f.DiscountPercent)
	assertMoney(t, "17", f.DiscountedPrice)
}

func TestDiscountPercentChanged_WithoutOriginal(t *testing.T) {
	f := Form{DiscountedPrice: money("3.10")}
	f.OnDiscountPercentChanged("40")

	assert.Equal(t, NewPercent(40), f.DiscountPercent)
	assertMoney(t, "3.10", f.DiscountedPrice)
}

func TestFinalPriceChanged(t *testing.T) {
	f := Form{OriginalPrice: money("8.00"), DiscountPercent: NewPercent(10)}
	f.OnFinalPriceChanged("6.00")

	assert.Equal(t, NewPercent(25), f.DiscountPercent)
	assertMoney(t, "6", f.DiscountedPrice)
}

func TestFinalPriceChanged_AboveOriginalIsNotClamped(t *testing.T) {
	f := Form{OriginalPrice: money("10")}
	f.OnFinalPriceChanged("12.50")

	assert.Equal(t, NewPercent(-25), f.DiscountPercent)
}

func TestFinalPriceChanged_ZeroOriginalLeavesPercent(t *testing.T) {
	f := Form{OriginalPrice: money("0"), DiscountPercent: NewPercent(5)}
	f.OnFinalPriceChanged("3")

	assert.Equal(t, NewPercent(5), f.DiscountPercent)
	assertMoney(t, "3", f.DiscountedPrice)
}

func TestClamping(t *testing.T) {
	var f Form
	f.OnOriginalPriceChanged("-5")
	assertMoney(t, "0", f.OriginalPrice)

	f.OnDiscountPercentChanged("150")
	assert.Equal(t, NewPercent(100), f.DiscountPercent)

	f.OnDiscountPercentChanged("-10")
	assert.Equal(t, NewPercent(0), f.DiscountPercent)

	f.OnFinalPriceChanged("-2")
	assertMoney(t, "0", f.DiscountedPrice)
}

func TestEmptyInputsAreNoOps(t *testing.T) {
	var f Form
	f.OnOriginalPriceChanged("")
	f.OnDiscountPercentChanged(" ")
	f.OnFinalPriceChanged("")

	assert.False(t, f.OriginalPrice.Valid)
	assert.False(t, f.DiscountPercent.Valid)
	assert.False(t, f.DiscountedPrice.Valid)

	f = Form{DiscountPercent: NewPercent(20), DiscountedPrice: money("4")}
	f.OnOriginalPriceChanged("")
	assert.False(t, f.OriginalPrice.Valid)
	assertMoney(t, "4", f.DiscountedPrice)
	assert.Equal(t, NewPercent(20), f.DiscountPercent)

	f.OnFinalPriceChanged("abc")
	assert.False(t, f.DiscountedPrice.Valid)
	assert.Equal(t, NewPercent(20), f.DiscountPercent)
}

func TestRoundTripRecoversPercent(t *testing.T) {
	originals := []string{"1", "1.99", "3.49", "12.00", "19.95", "99.99", "250", "1234.56"}
	for _, o := range originals {
		for p := int64(0); p <= 100; p++ {
			t.Run(fmt.Sprintf("%s@%d", o, p), func(t *testing.T) {
				f := Form{OriginalPrice: money(o)}
				f.OnDiscountPercentChanged(fmt.Sprint(p))
				require.True(t, f.DiscountedPrice.Valid)

				f.OnFinalPriceChanged(f.DiscountedPrice.Decimal.String())
				got := f.DiscountPercent.Value
				assert.LessOrEqual(t, abs(got-p), int64(1), "percent %d came back as %d", p, got)
			})
		}
	}
}

func TestConsistent(t *testing.T) {
	f := Form{}
	assert.False(t, f.Consistent())

	f.OnOriginalPriceChanged("10")
	f.OnDiscountPercentChanged("30")
	assert.True(t, f.Consistent())

	f.DiscountedPrice = money("6.99")
	assert.False(t, f.Consistent())
}

func TestReconcile(t *testing.T) {
	f, err := Reconcile(Form{}, FieldOriginalPrice, "10")
	require.NoError(t, err)
	f, err = Reconcile(f, FieldDiscountPercent, "50")
	require.NoError(t, err)
	assertMoney(t, "5", f.DiscountedPrice)

	_, err = Reconcile(f, Field("quantity"), "1")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
