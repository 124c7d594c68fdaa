package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "stockdash/internal/errors"
	"stockdash/internal/market"
	"stockdash/internal/models"
)

func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSearchCmd(app))
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newStocksCmd(app))
}

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search stocks by symbol or company name",
		Long: `Search the stock catalog by ticker or company name.

Queries shorter than two characters return no results.`,
		Example: `  stockdash search app
  stockdash search "micro"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			results, err := app.Quotes.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(results)
			}
			if len(results) == 0 {
				output.Dim("No matches")
				return nil
			}
			renderQuotes(output, results, false)
			return nil
		},
	}
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbols...>",
		Short: "Get quotes for one or more symbols",
		Long: `Fetch a quote for each symbol. Symbols that fail to fetch are skipped.

A single symbol prints a detail card with volume, market cap and the
52-week range.`,
		Example: `  stockdash quote AAPL
  stockdash quote AAPL MSFT NVDA`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			if len(args) == 1 {
				q, err := app.Quotes.Quote(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output.IsJSON() {
					return output.JSON(q)
				}
				renderQuoteCard(output, q)
				return nil
			}

			results, err := app.Quotes.Prices(cmd.Context(), args)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(results)
			}
			if len(results) < len(args) {
				output.Warning("%d of %d symbols could not be fetched", len(args)-len(results), len(args))
			}
			renderQuotes(output, results, false)
			return nil
		},
	}
}

func newStocksCmd(app *App) *cobra.Command {
	var opts market.ListOptions
	var order string

	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "List the dashboard stocks",
		Long: `List every stock on the dashboard with optional filtering and sorting.

Sort fields: symbol, price, change, changePercent, volume, marketCap.
Filters: all, gainers, losers.`,
		Example: `  stockdash stocks --filter gainers --sort changePercent --order desc
  stockdash stocks --query micro`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			switch strings.ToLower(order) {
			case "asc":
				opts.Descending = false
			case "desc":
				opts.Descending = true
			default:
				return apperrors.NewValidationError("order", order, "must be asc or desc")
			}

			all, err := app.Quotes.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			list, err := market.FilterAndSort(all, opts)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list)
			}
			renderQuotes(output, list, true)
			output.Dim("%d of %d stocks", len(list), len(all))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "filter by symbol or company name")
	cmd.Flags().StringVar(&opts.Filter, "filter", market.FilterAll, "all, gainers or losers")
	cmd.Flags().StringVar(&opts.SortBy, "sort", "symbol", "sort field")
	cmd.Flags().StringVar(&order, "order", "asc", "sort order: asc or desc")

	return cmd
}

func renderQuotes(output *Output, list []models.Quote, detailed bool) {
	headers := []string{"SYMBOL", "NAME", "PRICE", "CHANGE", "CHANGE %"}
	if detailed {
		headers = append(headers, "VOLUME", "MKT CAP")
	}
	table := NewTable(output, headers...)
	for _, q := range list {
		row := []string{
			output.BoldText(q.Symbol),
			TruncateString(q.Name, 32),
			FormatCurrency(q.Price),
			output.Movement(q.Change, FormatCurrency(q.Change)),
			output.FormatPercent(q.ChangePercent),
		}
		if detailed {
			row = append(row, FormatCompactNumber(float64(q.Volume)), FormatCompactNumber(float64(q.MarketCap)))
		}
		table.AddRow(row...)
	}
	table.Render()
}

func renderQuoteCard(output *Output, q models.Quote) {
	lines := []string{
		fmt.Sprintf("Price:     %s", FormatCurrency(q.Price)),
		fmt.Sprintf("Change:    %s", output.Movement(q.Change, FormatChange(q.Change, q.ChangePercent))),
	}
	if q.Exchange != "" {
		lines = append(lines, fmt.Sprintf("Exchange:  %s", q.Exchange))
	}
	if q.Volume > 0 {
		lines = append(lines, fmt.Sprintf("Volume:    %s", FormatCompactNumber(float64(q.Volume))))
	}
	if q.MarketCap > 0 {
		lines = append(lines, fmt.Sprintf("Mkt cap:   %s", FormatCompactNumber(float64(q.MarketCap))))
	}
	if q.High52Week > 0 {
		lines = append(lines,
			fmt.Sprintf("52W high:  %s", FormatCurrency(q.High52Week)),
			fmt.Sprintf("52W low:   %s", FormatCurrency(q.Low52Week)),
		)
	}

	title := q.Symbol
	if q.Name != "" {
		title = q.Symbol + "  " + q.Name
	}
	output.Box(title, lines)
}
