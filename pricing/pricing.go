// Package pricing computes checkout taxes and shipping. Rates live
// client-side; the server revalidates totals when the order is placed.
package pricing

import (
	"math"
	"strings"
)

// Tax rates by state, in percent.
var taxRates = map[string]float64{
	"CA": 8.25,
	"TX": 6.25,
	"FL": 6.0,
	"NY": 8.0,
	"IL": 6.25,
	"PA": 6.0,
	"OH": 5.75,
	"GA": 4.0,
	"NC": 4.75,
	"MI": 6.0,
}

const defaultTaxRate = 7.0

const (
	freeShippingThreshold = 100.0
	flatShippingCost      = 10.0
)

// Rate returns the tax rate in percent for a state code, falling back to the
// default rate for unknown states.
func Rate(state string) float64 {
	if rate, ok := taxRates[strings.ToUpper(state)]; ok {
		return rate
	}
	return defaultTaxRate
}

// Tax returns the tax amount for a subtotal shipped to the given state,
// rounded to cents.
func Tax(subtotal float64, state string) float64 {
	return roundCents(subtotal * Rate(state) / 100)
}

// Shipping returns the shipping cost for a subtotal: free at or above the
// threshold, a flat fee below it.
func Shipping(subtotal float64) float64 {
	if subtotal >= freeShippingThreshold {
		return 0
	}
	return flatShippingCost
}

// Quote is a full checkout price breakdown.
type Quote struct {
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	ShippingCost float64 `json:"shippingCost"`
	Total        float64 `json:"totalPrice"`
}

// NewQuote computes tax and shipping for a subtotal shipped to state.
func NewQuote(subtotal float64, state string) Quote {
	tax := Tax(subtotal, state)
	shipping := Shipping(subtotal)
	return Quote{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Total:        roundCents(subtotal + tax + shipping),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
