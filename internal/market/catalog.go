// Package market generates synthetic quotes from a static symbol catalog.
package market

import (
	"stockdash/internal/models"
)

// Listing is a catalog row.
type Listing struct {
	Symbol    string
	Name      string
	Exchange  models.Exchange
	BasePrice float64
}

var catalog = []Listing{
	{"AAPL", "Apple Inc.", models.NASDAQ, 175},
	{"GOOGL", "Alphabet Inc.", models.NASDAQ, 140},
	{"MSFT", "Microsoft Corporation", models.NASDAQ, 380},
	{"AMZN", "Amazon.com Inc.", models.NASDAQ, 145},
	{"TSLA", "Tesla Inc.", models.NASDAQ, 240},
	{"META", "Meta Platforms Inc.", models.NASDAQ, 320},
	{"NVDA", "NVIDIA Corporation", models.NASDAQ, 450},
	{"NFLX", "Netflix Inc.", models.NASDAQ, 420},
	{"AMD", "Advanced Micro Devices Inc.", models.NASDAQ, 140},
	{"INTC", "Intel Corporation", models.NASDAQ, 45},
	{"CRM", "Salesforce Inc.", models.NYSE, 220},
	{"ORCL", "Oracle Corporation", models.NYSE, 115},
	{"ADBE", "Adobe Inc.", models.NASDAQ, 580},
	{"PYPL", "PayPal Holdings Inc.", models.NASDAQ, 85},
	{"UBER", "Uber Technologies Inc.", models.NYSE, 55},
	{"SPOT", "Spotify Technology S.A.", models.NYSE, 180},
	{"ZOOM", "Zoom Video Communications Inc.", models.NASDAQ, 75},
	{"SQ", "Block Inc.", models.NYSE, 95},
	{"TWTR", "Twitter Inc.", models.NYSE, 45},
	{"SNAP", "Snap Inc.", models.NYSE, 12},
}

// searchableCount is how many leading catalog rows search covers.
const searchableCount = 10

var bySymbol = func() map[string]Listing {
	m := make(map[string]Listing, len(catalog))
	for _, l := range catalog {
		m[l.Symbol] = l
	}
	return m
}()

// Lookup returns the catalog row for symbol.
func Lookup(symbol string) (Listing, bool) {
	l, ok := bySymbol[models.NormalizeSymbol(symbol)]
	return l, ok
}

// Catalog returns every listing in display order.
func Catalog() []Listing {
	out := make([]Listing, len(catalog))
	copy(out, catalog)
	return out
}

// Searchable returns the listings the search box matches against.
func Searchable() []Listing {
	out := make([]Listing, searchableCount)
	copy(out, catalog[:searchableCount])
	return out
}
