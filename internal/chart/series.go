// Package chart builds synthetic historical price series for charting.
package chart

import (
	"math"
	"time"

	apperrors "stockdash/internal/errors"
	"stockdash/internal/market"
	"stockdash/internal/models"
)

// layout describes how a time frame is sampled and labelled.
type layout struct {
	points  int
	spacing time.Duration
	format  string
}

const day = 24 * time.Hour

var layouts = map[models.TimeFrame]layout{
	models.TimeFrame1D: {24, time.Hour, "15:04"},
	models.TimeFrame1W: {7, day, "Mon"},
	models.TimeFrame1M: {30, day, "Jan 2"},
	models.TimeFrame3M: {90, day, "Jan 2"},
	models.TimeFrame1Y: {52, 7 * day, "Jan '06"},
}

// fallback applies to 6M and any unrecognized frame.
var fallback = layout{30, day, "Jan 2"}

func layoutFor(tf models.TimeFrame) layout {
	if l, ok := layouts[tf]; ok {
		return l
	}
	return fallback
}

// motion is the per-symbol drift of a chart walk, in percent per step.
type motion struct {
	volatility float64
	trend      float64
}

var motions = map[string]motion{
	"AAPL":  {2.5, 0.3},
	"GOOGL": {3.0, 0.2},
	"MSFT":  {2.2, 0.4},
	"AMZN":  {3.5, -0.1},
	"TSLA":  {6.0, 0.1},
	"META":  {4.0, 0.5},
	"NVDA":  {5.0, 0.8},
	"NFLX":  {4.5, -0.2},
	"AMD":   {4.2, 0.3},
	"INTC":  {2.8, -0.3},
}

var defaultMotion = motion{volatility: 3.0}

func motionFor(symbol string) motion {
	if m, ok := motions[models.NormalizeSymbol(symbol)]; ok {
		return m
	}
	return defaultMotion
}

// Generator produces historical series ending at a given price.
type Generator struct {
	rng Random
	now func() time.Time
}

// Random is the randomness the generator draws from.
type Random = market.Random

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source used to date points.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a series generator.
func NewGenerator(rng Random, opts ...Option) *Generator {
	g := &Generator{rng: rng, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Series walks backward from currentPrice and returns the series oldest
// first. The last point carries currentPrice unchanged.
func (g *Generator) Series(symbol string, tf models.TimeFrame, currentPrice float64) ([]models.HistoricalPoint, error) {
	if math.IsNaN(currentPrice) || math.IsInf(currentPrice, 0) || currentPrice <= 0 {
		return nil, apperrors.NewValidationError("currentPrice", currentPrice, "must be a positive number")
	}

	l := layoutFor(tf)
	m := motionFor(symbol)
	now := g.now()

	points := make([]models.HistoricalPoint, l.points)
	price := currentPrice
	for i := l.points - 1; i >= 0; i-- {
		reported := price
		if i < l.points-1 {
			changePercent := (g.rng.Float64()-0.5)*m.volatility + m.trend*0.1
			price = price / (1 + changePercent/100)
			reported = market.Round2(price)
			if reported <= 0 {
				// sub-cent prices are reported unrounded so no point reads 0.00
				reported = price
			}
		}
		date := now.Add(-time.Duration(l.points-1-i) * l.spacing)
		points[i] = models.HistoricalPoint{
			Date:   date.Format(l.format),
			Price:  reported,
			Volume: int64(math.Floor(g.rng.Float64()*5_000_000)) + 1_000_000,
		}
	}

	return points, nil
}
