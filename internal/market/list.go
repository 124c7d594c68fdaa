package market

import (
	"sort"
	"strings"

	apperrors "stockdash/internal/errors"
	"stockdash/internal/models"
)

// Movement filters for ListOptions.
const (
	FilterAll     = "all"
	FilterGainers = "gainers"
	FilterLosers  = "losers"
)

// Sortable fields for ListOptions.
var sortFields = map[string]func(a, b models.Quote) bool{
	"symbol":        func(a, b models.Quote) bool { return strings.ToLower(a.Symbol) < strings.ToLower(b.Symbol) },
	"price":         func(a, b models.Quote) bool { return a.Price < b.Price },
	"change":        func(a, b models.Quote) bool { return a.Change < b.Change },
	"changePercent": func(a, b models.Quote) bool { return a.ChangePercent < b.ChangePercent },
	"volume":        func(a, b models.Quote) bool { return a.Volume < b.Volume },
	"marketCap":     func(a, b models.Quote) bool { return a.MarketCap < b.MarketCap },
}

// ListOptions narrows and orders a quote list.
type ListOptions struct {
	Query      string // substring of symbol or name, case-insensitive
	Filter     string // all, gainers, losers
	SortBy     string // symbol, price, change, changePercent, volume, marketCap
	Descending bool
}

// FilterAndSort applies opts to quotes and returns a new slice.
// Gainers have a positive change percent, losers a negative one.
func FilterAndSort(quotes []models.Quote, opts ListOptions) ([]models.Quote, error) {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "symbol"
	}
	less, ok := sortFields[sortBy]
	if !ok {
		return nil, apperrors.NewValidationError("sort", opts.SortBy, "must be one of symbol, price, change, changePercent, volume, marketCap")
	}

	filter := strings.ToLower(opts.Filter)
	switch filter {
	case "", FilterAll, FilterGainers, FilterLosers:
	default:
		return nil, apperrors.NewValidationError("filter", opts.Filter, "must be all, gainers or losers")
	}

	needle := strings.ToLower(strings.TrimSpace(opts.Query))
	out := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		if needle != "" &&
			!strings.Contains(strings.ToLower(q.Symbol), needle) &&
			!strings.Contains(strings.ToLower(q.Name), needle) {
			continue
		}
		if filter == FilterGainers && q.ChangePercent <= 0 {
			continue
		}
		if filter == FilterLosers && q.IsGaining() {
			continue
		}
		out = append(out, q)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if opts.Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out, nil
}
