package aws

import (
	"sort"
	"strings"
)

// HourlyPrice is the outcome of selecting an on-demand hourly rate.
// Unit is UnitHours whenever an hourly dimension was found, even if its
// USD amount could not be parsed; Valid reports whether USD holds a price.
type HourlyPrice struct {
	USD   float64
	Unit  string
	Valid bool
}

// SelectHourlyPrice picks the hourly USD rate of an item's on-demand term.
// Catalog items carry a single on-demand term in practice; when several are
// present the one with the lowest key wins so that repeated runs agree.
// Reserved terms and non-hourly dimensions are ignored.
func SelectHourlyPrice(item Item) HourlyPrice {
	term, ok := firstTerm(item.Terms.OnDemand)
	if !ok {
		return HourlyPrice{}
	}

	for _, key := range sortedKeys(term.PriceDimensions) {
		dim := term.PriceDimensions[key]
		if !strings.EqualFold(dim.Unit, UnitHours) {
			continue
		}
		value, ok := parseFinite(dim.PricePerUnit[CurrencyUSD])
		if !ok {
			return HourlyPrice{Unit: UnitHours}
		}
		return HourlyPrice{USD: value, Unit: UnitHours, Valid: true}
	}
	return HourlyPrice{}
}

func firstTerm(terms map[string]OfferTerm) (OfferTerm, bool) {
	if len(terms) == 0 {
		return OfferTerm{}, false
	}
	return terms[sortedKeys(terms)[0]], true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
