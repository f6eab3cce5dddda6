package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-merchant-console/internal/pricing"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusSoldOut Status = "SOLD_OUT"
	StatusExpired Status = "EXPIRED"
)

type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountPercent int64           `json:"discount_percent"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Quantity        int             `json:"quantity"`
	IsFeatured      bool            `json:"is_featured"`
	ExpiryDate      time.Time       `json:"expiry_date"`
	Status          Status          `json:"status"` // derived, see DeriveStatus
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DeriveStatus computes the status from stock and expiry. Sold out wins over
// expired.
func (p Product) DeriveStatus(now time.Time) Status {
	if p.Quantity <= 0 {
		return StatusSoldOut
	}
	if !p.ExpiryDate.IsZero() && p.ExpiryDate.Before(now) {
		return StatusExpired
	}
	return StatusActive
}

// Normalize enforces the stock invariants: quantity is never negative, and a
// sold-out product is never featured.
func (p *Product) Normalize(now time.Time) {
	if p.Quantity < 0 {
		p.Quantity = 0
	}
	p.Status = p.DeriveStatus(now)
	if p.Status == StatusSoldOut {
		p.IsFeatured = false
	}
}

func (p *Product) SetQuantity(q int, now time.Time) {
	p.Quantity = q
	p.Normalize(now)
}

// PricingForm returns the product's price fields as an editable form.
func (p Product) PricingForm() pricing.Form {
	return pricing.Form{
		OriginalPrice:   decimal.NewNullDecimal(p.OriginalPrice),
		DiscountPercent: pricing.NewPercent(p.DiscountPercent),
		DiscountedPrice: decimal.NewNullDecimal(p.DiscountedPrice),
	}
}

// ApplyPricing copies a complete form onto the product. The percent must
// agree with the prices, either as the source of the final price or as
// derived from a typed final price; a missing percent is derived.
func (p *Product) ApplyPricing(f pricing.Form) error {
	if !f.OriginalPrice.Valid || !f.DiscountedPrice.Valid {
		return ErrIncompletePricing
	}
	original, final := f.OriginalPrice.Decimal, f.DiscountedPrice.Decimal

	var percent int64
	switch {
	case !original.IsPositive():
		if f.DiscountPercent.Valid {
			percent = f.DiscountPercent.Value
		}
	case !f.DiscountPercent.Valid:
		percent = pricing.PercentOff(original, final)
	case f.Consistent() || pricing.PercentOff(original, final) == f.DiscountPercent.Value:
		percent = f.DiscountPercent.Value
	default:
		return ErrInconsistentPricing
	}

	p.OriginalPrice = original
	p.DiscountedPrice = final
	p.DiscountPercent = percent
	return nil
}
