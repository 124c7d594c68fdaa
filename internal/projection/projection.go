// Package projection compares the projected profit of two stocks.
package projection

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	apperrors "stockdash/internal/errors"
	"stockdash/internal/logging"
	"stockdash/internal/market"
	"stockdash/internal/models"
)

// profile is the volatility (percent) and expected trend (percent) used
// when projecting a symbol forward.
type profile struct {
	volatility float64
	trend      float64
}

var profiles = map[string]profile{
	"AAPL":  {25, 8.5},
	"GOOGL": {30, 6.2},
	"MSFT":  {22, 12.1},
	"AMZN":  {35, -2.3},
	"TSLA":  {60, 15.7},
	"META":  {40, 18.9},
	"NVDA":  {50, 25.4},
	"NFLX":  {45, -5.1},
	"AMD":   {42, 11.3},
	"INTC":  {28, -8.2},
}

var defaultProfile = profile{volatility: 30, trend: 5.0}

func profileFor(symbol string) profile {
	if p, ok := profiles[models.NormalizeSymbol(symbol)]; ok {
		return p
	}
	return defaultProfile
}

// Volatility returns the projection volatility for symbol.
func Volatility(symbol string) float64 {
	return profileFor(symbol).volatility
}

var timeMultipliers = map[models.TimeFrame]float64{
	models.TimeFrame1M: 1,
	models.TimeFrame3M: 2.8,
	models.TimeFrame6M: 5.2,
	models.TimeFrame1Y: 9.5,
}

// Risk thresholds on the average volatility.
const (
	lowRiskBelow    = 25
	mediumRiskBelow = 40
)

// Request is a validated projection input.
type Request struct {
	SymbolA   string           `json:"stockA" validate:"required"`
	PriceA    float64          `json:"priceA" validate:"gt=0"`
	SymbolB   string           `json:"stockB" validate:"required"`
	PriceB    float64          `json:"priceB" validate:"gt=0"`
	Amount    float64          `json:"investmentAmount" validate:"gt=0"`
	TimeFrame models.TimeFrame `json:"timeFrame" validate:"oneof=1M 3M 6M 1Y"`
}

// Engine projects returns using an injected random source.
type Engine struct {
	rng      market.Random
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewEngine creates a projection engine.
func NewEngine(rng market.Random, logger zerolog.Logger) *Engine {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Engine{
		rng:      rng,
		validate: v,
		logger:   logging.WithOperation(logger, "projection"),
	}
}

// Validate checks a request. Failures are *errors.ValidationError values
// that match ErrInvalidArgument.
func (e *Engine) Validate(req Request) error {
	numbers := []struct {
		field string
		value float64
	}{
		{"priceA", req.PriceA},
		{"priceB", req.PriceB},
		{"investmentAmount", req.Amount},
	}
	for _, n := range numbers {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return apperrors.NewValidationError(n.field, n.value, "must be a finite number")
		}
	}

	err := e.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidationError(fe.Field(), fe.Value(), describe(fe))
	}
	return apperrors.Wrap(apperrors.ErrInvalidArgument, err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// Project compares buying stockA and stockB with the same amount over tf.
// Projected returns for A are drawn before B.
func (e *Engine) Project(stockA, stockB models.Quote, amount float64, tf models.TimeFrame) (models.ProfitAnalysis, error) {
	req := Request{
		SymbolA:   stockA.Symbol,
		PriceA:    stockA.Price,
		SymbolB:   stockB.Symbol,
		PriceB:    stockB.Price,
		Amount:    amount,
		TimeFrame: tf,
	}
	if err := e.Validate(req); err != nil {
		return models.ProfitAnalysis{}, err
	}

	a := e.analyze(stockA, amount, tf)
	b := e.analyze(stockB, amount, tf)

	winner := a
	if b.ProjectedProfit > a.ProjectedProfit {
		winner = b
	}

	analysis := models.ProfitAnalysis{
		StockA:           a,
		StockB:           b,
		Winner:           winner,
		ProfitDifference: math.Abs(a.ProjectedProfit - b.ProjectedProfit),
		ReturnDifference: math.Abs(a.ProjectedReturn - b.ProjectedReturn),
		RiskAssessment:   AssessRisk(stockA.Symbol, stockB.Symbol),
		Amount:           amount,
		TimeFrame:        tf,
	}

	logging.LogProjection(e.logger, a.Symbol, b.Symbol, winner.Symbol, amount, string(tf))
	return analysis, nil
}

// ProjectedReturn draws a projected return in percent for q over tf.
func (e *Engine) ProjectedReturn(q models.Quote, tf models.TimeFrame) float64 {
	p := profileFor(q.Symbol)
	base := (q.ChangePercent*0.3 + p.trend*0.7) * timeMultipliers[tf]
	noise := (e.rng.Float64() - 0.5) * p.volatility * 0.5
	return market.Round2(base + noise)
}

func (e *Engine) analyze(q models.Quote, amount float64, tf models.TimeFrame) models.StockAnalysis {
	ret := e.ProjectedReturn(q, tf)
	shares := math.Floor(amount / q.Price)
	investment := shares * q.Price
	value := shares * (q.Price * (1 + ret/100))

	return models.StockAnalysis{
		Symbol:          q.Symbol,
		Shares:          int64(shares),
		Investment:      investment,
		ProjectedValue:  value,
		ProjectedProfit: value - investment,
		ProjectedReturn: ret,
	}
}

// AssessRisk buckets the average projection volatility of two symbols.
func AssessRisk(symbolA, symbolB string) models.RiskAssessment {
	avg := (Volatility(symbolA) + Volatility(symbolB)) / 2

	level := models.RiskHigh
	switch {
	case avg < lowRiskBelow:
		level = models.RiskLow
	case avg < mediumRiskBelow:
		level = models.RiskMedium
	}

	return models.RiskAssessment{Level: level, Volatility: market.Round2(avg)}
}
