// Package models provides domain models for the dashboard.
package models

import (
	"fmt"
	"strings"
	"time"

	apperrors "stockdash/internal/errors"
)

// Exchange represents a stock exchange.
type Exchange string

const (
	NASDAQ Exchange = "NASDAQ"
	NYSE   Exchange = "NYSE"
)

// Quote is a synthetic snapshot of a ticker at generation time.
// Price equals the base price plus Change, and ChangePercent is Change
// relative to the base price.
type Quote struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name,omitempty"`
	Price         float64  `json:"price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"changePercent"`
	Volume        int64    `json:"volume,omitempty"`
	Exchange      Exchange `json:"exchange,omitempty"`
	MarketCap     int64    `json:"marketCap,omitempty"`
	High52Week    float64  `json:"high52Week,omitempty"`
	Low52Week     float64  `json:"low52Week,omitempty"`
}

// IsGaining reports whether the quote moved up or stayed flat.
func (q Quote) IsGaining() bool {
	return q.ChangePercent >= 0
}

// TimeFrame is a charting or projection window.
type TimeFrame string

const (
	TimeFrame1D TimeFrame = "1D"
	TimeFrame1W TimeFrame = "1W"
	TimeFrame1M TimeFrame = "1M"
	TimeFrame3M TimeFrame = "3M"
	TimeFrame6M TimeFrame = "6M"
	TimeFrame1Y TimeFrame = "1Y"
)

// ChartTimeFrames are the windows offered for a single-stock chart.
var ChartTimeFrames = []TimeFrame{TimeFrame1D, TimeFrame1W, TimeFrame1M, TimeFrame3M, TimeFrame1Y}

// ProjectionTimeFrames are the horizons the projection engine accepts.
var ProjectionTimeFrames = []TimeFrame{TimeFrame1M, TimeFrame3M, TimeFrame6M, TimeFrame1Y}

// ParseTimeFrame parses a time frame such as "1m" or "1Y".
func ParseTimeFrame(s string) (TimeFrame, error) {
	tf := TimeFrame(strings.ToUpper(strings.TrimSpace(s)))
	switch tf {
	case TimeFrame1D, TimeFrame1W, TimeFrame1M, TimeFrame3M, TimeFrame6M, TimeFrame1Y:
		return tf, nil
	}
	return "", apperrors.NewValidationError("timeFrame", s, "must be one of 1D, 1W, 1M, 3M, 6M, 1Y")
}

// IsProjection reports whether tf is a valid projection horizon.
func (tf TimeFrame) IsProjection() bool {
	for _, p := range ProjectionTimeFrames {
		if p == tf {
			return true
		}
	}
	return false
}

func (tf TimeFrame) String() string {
	return string(tf)
}

// HistoricalPoint is one sample of a chart series.
type HistoricalPoint struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume,omitempty"`
}

// ChartSummary holds the headline numbers shown under a chart.
type ChartSummary struct {
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Range         float64 `json:"range"`
	First         float64 `json:"first"`
	Last          float64 `json:"last"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// ComparisonPoint holds both stocks' percentage return since the first sample.
type ComparisonPoint struct {
	Date    string  `json:"date"`
	ReturnA float64 `json:"returnA"`
	ReturnB float64 `json:"returnB"`
}

// RiskLevel buckets the average volatility of a comparison.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// StockAnalysis is the projection for one side of a comparison.
type StockAnalysis struct {
	Symbol          string  `json:"symbol"`
	Shares          int64   `json:"shares"`
	Investment      float64 `json:"investment"`
	ProjectedValue  float64 `json:"projectedValue"`
	ProjectedProfit float64 `json:"projectedProfit"`
	ProjectedReturn float64 `json:"projectedReturn"`
}

// RiskAssessment is the coarse risk bucket of a comparison.
type RiskAssessment struct {
	Level      RiskLevel `json:"level"`
	Volatility float64   `json:"volatility"`
}

// ProfitAnalysis is the derived result of comparing two stocks.
type ProfitAnalysis struct {
	StockA           StockAnalysis  `json:"stockA"`
	StockB           StockAnalysis  `json:"stockB"`
	Winner           StockAnalysis  `json:"winner"`
	ProfitDifference float64        `json:"profitDifference"`
	ReturnDifference float64        `json:"returnDifference"`
	RiskAssessment   RiskAssessment `json:"riskAssessment"`
	Amount           float64        `json:"amount"`
	TimeFrame        TimeFrame      `json:"timeFrame"`
}

// WatchlistUpdate is a refreshed snapshot of the watchlist's quotes.
type WatchlistUpdate struct {
	Symbols   []string  `json:"symbols"`
	Quotes    []Quote   `json:"quotes"`
	UpdatedAt time.Time `json:"updatedAt"`
	Error     string    `json:"error,omitempty"`
}

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol normalizes a ticker and rejects empty or malformed input.
func ValidateSymbol(symbol string) (string, error) {
	s := NormalizeSymbol(symbol)
	if s == "" {
		return "", apperrors.NewValidationError("symbol", symbol, "must not be empty")
	}
	if len(s) > 10 {
		return "", apperrors.NewValidationError("symbol", symbol, fmt.Sprintf("must be at most 10 characters, got %d", len(s)))
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '.' && r != '-' {
			return "", apperrors.NewValidationError("symbol", symbol, "may only contain letters, digits, '.' and '-'")
		}
	}
	return s, nil
}
