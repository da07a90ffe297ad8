package bazaar

import "fmt"

// PriceStepCents is the smallest price increment on a label.
const PriceStepCents = 50

// ValidatePrice checks a label price in cents.
func ValidatePrice(cents int64) error {
	if cents <= 0 || cents%PriceStepCents != 0 {
		return ErrInvalidPrice
	}
	return nil
}

// Settlement is the payout summary of a seller or a whole event.
type Settlement struct {
	SoldCount       int   `json:"sold_count"`
	SoldTotalCents  int64 `json:"sold_total_cents"`
	CommissionCents int64 `json:"commission_cents"`
	PayoutCents     int64 `json:"payout_cents"`
}

// Settle computes commission (rounded half up to the cent) and payout.
func Settle(soldCount int, soldTotalCents int64, commissionPercent int) Settlement {
	commission := (soldTotalCents*int64(commissionPercent) + 50) / 100
	return Settlement{
		SoldCount:       soldCount,
		SoldTotalCents:  soldTotalCents,
		CommissionCents: commission,
		PayoutCents:     soldTotalCents - commission,
	}
}

// FormatEuro renders cents the German way, e.g. 1250 -> "12,50 €".
func FormatEuro(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}
