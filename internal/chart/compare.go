package chart

import (
	"stockdash/internal/market"
	"stockdash/internal/models"
)

// Normalize converts a series to percent change from its first point.
func Normalize(points []models.HistoricalPoint) []float64 {
	out := make([]float64, len(points))
	if len(points) == 0 || points[0].Price == 0 {
		return out
	}
	first := points[0].Price
	for i, p := range points {
		out[i] = market.Round2((p.Price - first) / first * 100)
	}
	return out
}

// Compare generates a series for each stock and lines up their returns.
func (g *Generator) Compare(symbolA string, priceA float64, symbolB string, priceB float64, tf models.TimeFrame) ([]models.ComparisonPoint, error) {
	a, err := g.Series(symbolA, tf, priceA)
	if err != nil {
		return nil, err
	}
	b, err := g.Series(symbolB, tf, priceB)
	if err != nil {
		return nil, err
	}

	ra, rb := Normalize(a), Normalize(b)
	out := make([]models.ComparisonPoint, len(a))
	for i := range a {
		out[i] = models.ComparisonPoint{
			Date:    a[i].Date,
			ReturnA: ra[i],
			ReturnB: rb[i],
		}
	}
	return out, nil
}
