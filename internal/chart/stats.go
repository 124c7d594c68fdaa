package chart

import (
	"stockdash/internal/market"
	"stockdash/internal/models"
)

// Summarize returns the range and total move of a series.
// An empty series yields a zero summary.
func Summarize(points []models.HistoricalPoint) models.ChartSummary {
	if len(points) == 0 {
		return models.ChartSummary{}
	}

	high, low := points[0].Price, points[0].Price
	for _, p := range points[1:] {
		if p.Price > high {
			high = p.Price
		}
		if p.Price < low {
			low = p.Price
		}
	}

	first := points[0].Price
	last := points[len(points)-1].Price
	s := models.ChartSummary{
		High:   high,
		Low:    low,
		Range:  market.Round2(high - low),
		First:  first,
		Last:   last,
		Change: market.Round2(last - first),
	}
	if first != 0 {
		s.ChangePercent = market.Round2((last - first) / first * 100)
	}
	return s
}
