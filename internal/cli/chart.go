package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stockdash/internal/chart"
	apperrors "stockdash/internal/errors"
	"stockdash/internal/models"
)

const (
	defaultChartTimeFrame   = models.TimeFrame1M
	defaultCompareTimeFrame = models.TimeFrame3M
	defaultCompareAmount    = 10000.0
)

func addChartCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newChartCmd(app))
	rootCmd.AddCommand(newCompareCmd(app))
}

// chartResult is the JSON shape of the chart command.
type chartResult struct {
	Symbol    string                   `json:"symbol"`
	TimeFrame models.TimeFrame         `json:"timeFrame"`
	Points    []models.HistoricalPoint `json:"points"`
	Summary   models.ChartSummary      `json:"summary"`
}

// compareResult is the JSON shape of the compare command.
type compareResult struct {
	Analysis models.ProfitAnalysis    `json:"analysis"`
	Chart    []models.ComparisonPoint `json:"chart"`
}

func newChartCmd(app *App) *cobra.Command {
	var timeframe string
	var points bool

	cmd := &cobra.Command{
		Use:   "chart <symbol>",
		Short: "Show a synthetic price history",
		Long: `Generate a price history ending at the symbol's current price.

Time frames: 1D (hourly), 1W, 1M, 3M (daily), 1Y (weekly).`,
		Example: `  stockdash chart AAPL
  stockdash chart TSLA --timeframe 1Y --points`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			tf, err := models.ParseTimeFrame(timeframe)
			if err != nil {
				return err
			}
			q, err := app.Quotes.Quote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			series, err := app.Charts.Series(q.Symbol, tf, q.Price)
			if err != nil {
				return err
			}
			summary := chart.Summarize(series)

			if output.IsJSON() {
				return output.JSON(chartResult{Symbol: q.Symbol, TimeFrame: tf, Points: series, Summary: summary})
			}

			output.Bold("%s  %s", q.Symbol, tf)
			output.Println(output.Movement(summary.Change, Sparkline(series)))
			output.Println()
			output.Printf("  Current:  %s\n", FormatCurrency(summary.Last))
			output.Printf("  Change:   %s\n", output.Movement(summary.Change, FormatChange(summary.Change, summary.ChangePercent)))
			output.Printf("  High:     %s\n", FormatCurrency(summary.High))
			output.Printf("  Low:      %s\n", FormatCurrency(summary.Low))
			output.Printf("  Range:    %s\n", FormatCurrency(summary.Range))

			if points {
				output.Println()
				table := NewTable(output, "DATE", "PRICE", "VOLUME")
				for _, p := range series {
					table.AddRow(p.Date, FormatCurrency(p.Price), FormatCompactNumber(float64(p.Volume)))
				}
				table.Render()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", string(defaultChartTimeFrame), frameList(models.ChartTimeFrames))
	cmd.Flags().BoolVar(&points, "points", false, "print every data point")

	return cmd
}

func newCompareCmd(app *App) *cobra.Command {
	var timeframe string
	var amount float64

	cmd := &cobra.Command{
		Use:   "compare <symbolA> <symbolB>",
		Short: "Project the profit of investing in two stocks",
		Long: `Project what the same investment would earn in each of two stocks.

Time frames: 1M, 3M, 6M, 1Y. Shares are whole; cash that cannot buy a
full share stays uninvested. On equal projected profit the first symbol
wins.`,
		Example: `  stockdash compare AAPL MSFT
  stockdash compare NVDA AMD --amount 25000 --timeframe 1Y`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			tf, err := models.ParseTimeFrame(timeframe)
			if err != nil {
				return err
			}
			if !tf.IsProjection() {
				return apperrors.NewValidationError("timeframe", timeframe, "must be one of "+frameList(models.ProjectionTimeFrames))
			}
			qa, err := app.Quotes.Quote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			qb, err := app.Quotes.Quote(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			analysis, err := app.Projection.Project(qa, qb, amount, tf)
			if err != nil {
				return err
			}
			series, err := app.Charts.Compare(qa.Symbol, qa.Price, qb.Symbol, qb.Price, tf)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(compareResult{Analysis: analysis, Chart: series})
			}
			renderAnalysis(output, analysis, series)
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", string(defaultCompareTimeFrame), frameList(models.ProjectionTimeFrames))
	cmd.Flags().Float64VarP(&amount, "amount", "a", defaultCompareAmount, "investment amount in dollars")

	return cmd
}

func frameList(frames []models.TimeFrame) string {
	names := make([]string, len(frames))
	for i, tf := range frames {
		names[i] = string(tf)
	}
	return strings.Join(names, ", ")
}

func renderAnalysis(output *Output, a models.ProfitAnalysis, series []models.ComparisonPoint) {
	output.Bold("Investing %s over %s", FormatCurrency(a.Amount), a.TimeFrame)
	output.Println()

	table := NewTable(output, "SYMBOL", "SHARES", "INVESTED", "PROJECTED", "PROFIT", "RETURN")
	for _, s := range []models.StockAnalysis{a.StockA, a.StockB} {
		table.AddRow(
			output.BoldText(s.Symbol),
			FormatShares(s.Shares),
			FormatCurrency(s.Investment),
			FormatCurrency(s.ProjectedValue),
			output.FormatProfit(s.ProjectedProfit),
			output.FormatPercent(s.ProjectedReturn),
		)
	}
	table.Render()
	output.Println()

	output.Success("Winner: %s by %s (%s points)",
		a.Winner.Symbol, FormatCurrency(a.ProfitDifference), strconv.FormatFloat(a.ReturnDifference, 'f', 2, 64))
	output.Printf("Risk:   %s (volatility %.1f%%)\n", riskLabel(output, a.RiskAssessment.Level), a.RiskAssessment.Volatility)

	if len(series) > 0 {
		last := series[len(series)-1]
		output.Println()
		output.Dim("Simulated history")
		output.Printf("  %-6s %s\n", a.StockA.Symbol, output.FormatPercent(last.ReturnA))
		output.Printf("  %-6s %s\n", a.StockB.Symbol, output.FormatPercent(last.ReturnB))
	}
}

func riskLabel(output *Output, level models.RiskLevel) string {
	switch level {
	case models.RiskLow:
		return output.Green(string(level))
	case models.RiskHigh:
		return output.Red(string(level))
	}
	return string(level)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders prices as a single line of block characters scaled
// between the series low and high.
func Sparkline(points []models.HistoricalPoint) string {
	if len(points) == 0 {
		return ""
	}
	low, high := points[0].Price, points[0].Price
	for _, p := range points {
		if p.Price < low {
			low = p.Price
		}
		if p.Price > high {
			high = p.Price
		}
	}

	out := make([]rune, len(points))
	span := high - low
	for i, p := range points {
		idx := len(sparkBlocks) / 2
		if span > 0 {
			idx = int((p.Price - low) / span * float64(len(sparkBlocks)-1))
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}
