package market

import (
	"math"

	"github.com/shopspring/decimal"

	"stockdash/internal/models"
)

// Profile selects the call-site variant of quote generation.
type Profile struct {
	Name       string
	VolumeSpan float64 // volume = floor(r*VolumeSpan) + 1e6
	HighFactor float64 // 52-week high = base * HighFactor
	LowFactor  float64 // 52-week low = base * LowFactor
}

var (
	// LookupProfile is used for search results, price lookups and the watchlist.
	LookupProfile = Profile{Name: "lookup", VolumeSpan: 10_000_000, HighFactor: 1.3, LowFactor: 0.7}

	// DashboardProfile is used for the dashboard list.
	DashboardProfile = Profile{Name: "dashboard", VolumeSpan: 50_000_000, HighFactor: 1.4, LowFactor: 0.6}
)

const (
	minVolume     = 1_000_000
	marketCapMin  = 100_000_000_000
	marketCapSpan = 2_000_000_000_000
)

// Generator produces synthetic quotes.
type Generator struct {
	rng Random
}

// NewGenerator creates a generator drawing from rng.
func NewGenerator(rng Random) *Generator {
	return &Generator{rng: rng}
}

// BasePrice returns the catalog base price, or a random one in [50, 250)
// for symbols outside the catalog.
func (g *Generator) BasePrice(symbol string) float64 {
	if l, ok := Lookup(symbol); ok {
		return l.BasePrice
	}
	return math.Floor(g.rng.Float64()*200) + 50
}

// Quote generates a fresh quote for symbol. It never fails.
func (g *Generator) Quote(symbol string, p Profile) models.Quote {
	symbol = models.NormalizeSymbol(symbol)

	base := g.BasePrice(symbol)
	changePercent := (g.rng.Float64() - 0.5) * 10
	change := base * changePercent / 100
	price := base + change

	name := symbol + " Corporation"
	exchange := models.NASDAQ
	if l, ok := Lookup(symbol); ok {
		name = l.Name
		exchange = l.Exchange
	}

	return models.Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         Round2(price),
		Change:        Round2(change),
		ChangePercent: Round2(changePercent),
		Volume:        int64(math.Floor(g.rng.Float64()*p.VolumeSpan)) + minVolume,
		Exchange:      exchange,
		MarketCap:     int64(math.Floor(g.rng.Float64()*marketCapSpan)) + marketCapMin,
		High52Week:    Round2(base * p.HighFactor),
		Low52Week:     Round2(base * p.LowFactor),
	}
}

// Dashboard returns one quote per catalog listing in catalog order.
func (g *Generator) Dashboard() []models.Quote {
	quotes := make([]models.Quote, 0, len(catalog))
	for _, l := range catalog {
		quotes = append(quotes, g.Quote(l.Symbol, DashboardProfile))
	}
	return quotes
}

// Round2 rounds v half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
