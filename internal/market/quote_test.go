package market

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stockdash/internal/models"
)

func TestQuoteKnownSymbol(t *testing.T) {
	g := NewGenerator(NewSequence(0.75, 0.5, 0.25))

	q := g.Quote("aapl", LookupProfile)

	if q.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", q.Symbol)
	}
	if q.Name != "Apple Inc." {
		t.Errorf("Name = %q", q.Name)
	}
	if q.ChangePercent != 2.5 {
		t.Errorf("ChangePercent = %v, want 2.5", q.ChangePercent)
	}
	if q.Change != 4.38 {
		t.Errorf("Change = %v, want 4.38", q.Change)
	}
	if q.Price != 179.38 {
		t.Errorf("Price = %v, want 179.38", q.Price)
	}
	if q.Volume != 6_000_000 {
		t.Errorf("Volume = %d, want 6000000", q.Volume)
	}
	if q.MarketCap != 600_000_000_000 {
		t.Errorf("MarketCap = %d, want 6e11", q.MarketCap)
	}
	if q.High52Week != 227.5 || q.Low52Week != 122.5 {
		t.Errorf("52w = %v/%v, want 227.5/122.5", q.High52Week, q.Low52Week)
	}
	if q.Exchange != models.NASDAQ {
		t.Errorf("Exchange = %q", q.Exchange)
	}
}

func TestQuoteDashboardProfile(t *testing.T) {
	g := NewGenerator(NewSequence(0.5, 0.5, 0.5))

	q := g.Quote("CRM", DashboardProfile)

	if q.Price != 220 || q.Change != 0 {
		t.Errorf("Price/Change = %v/%v, want 220/0", q.Price, q.Change)
	}
	if q.Volume != 26_000_000 {
		t.Errorf("Volume = %d, want 26000000", q.Volume)
	}
	if q.High52Week != 308 || q.Low52Week != 132 {
		t.Errorf("52w = %v/%v, want 308/132", q.High52Week, q.Low52Week)
	}
	if q.Exchange != models.NYSE {
		t.Errorf("Exchange = %q, want NYSE", q.Exchange)
	}
}

func TestQuoteLookupUsesFullCatalog(t *testing.T) {
	g := NewGenerator(NewSequence(0.5))

	q := g.Quote("crm", LookupProfile)

	if q.Price != 220 || q.Exchange != models.NYSE {
		t.Errorf("Price/Exchange = %v/%q, want 220/NYSE", q.Price, q.Exchange)
	}
	if q.High52Week != 286 || q.Low52Week != 154 {
		t.Errorf("52w = %v/%v, want 286/154", q.High52Week, q.Low52Week)
	}
}

func TestQuoteUnknownSymbol(t *testing.T) {
	seq := NewSequence(0.5)
	g := NewGenerator(seq)

	q := g.Quote("zzz", LookupProfile)

	if q.Name != "ZZZ Corporation" {
		t.Errorf("Name = %q", q.Name)
	}
	if q.Exchange != models.NASDAQ {
		t.Errorf("Exchange = %q, want NASDAQ", q.Exchange)
	}
	if q.Price != 150 {
		t.Errorf("Price = %v, want 150", q.Price)
	}
	// base price, change, volume, market cap
	if seq.Draws() != 4 {
		t.Errorf("draws = %d, want 4", seq.Draws())
	}
}

func TestDashboardCoversCatalog(t *testing.T) {
	g := NewGenerator(NewLockedRandom(7))

	quotes := g.Dashboard()
	if len(quotes) != 20 {
		t.Fatalf("len = %d, want 20", len(quotes))
	}
	for i, l := range Catalog() {
		if quotes[i].Symbol != l.Symbol {
			t.Errorf("quotes[%d] = %s, want %s", i, quotes[i].Symbol, l.Symbol)
		}
		if quotes[i].Volume < 1_000_000 || quotes[i].Volume >= 51_000_000 {
			t.Errorf("%s volume %d out of range", l.Symbol, quotes[i].Volume)
		}
	}
}

func TestSearchableIsFirstTen(t *testing.T) {
	s := Searchable()
	if len(s) != 10 || s[0].Symbol != "AAPL" || s[9].Symbol != "INTC" {
		t.Errorf("unexpected searchable catalog: %+v", s)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.005, 1.01},
		{179.375, 179.38},
		{-2.345, -2.35},
		{0, 0},
		{12, 12},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// For any draw, a quote stays within the generator's documented bounds and
// price equals base plus change up to rounding.
func TestProperty_QuoteInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "TSLA", "SNAP", "ADBE", "XYZ"}
	unit := gen.Float64Range(0, 0.999999)

	properties.Property("quote invariants hold", prop.ForAll(
		func(idx int, a, b, c, d float64) bool {
			g := NewGenerator(NewSequence(a, b, c, d))
			sym := symbols[idx]
			q := g.Quote(sym, LookupProfile)

			if q.ChangePercent < -5 || q.ChangePercent > 5 {
				t.Logf("changePercent %v out of range", q.ChangePercent)
				return false
			}
			if q.Price <= 0 {
				return false
			}
			base := q.Price - q.Change
			if math.Abs(Round2(base*q.ChangePercent/100)-q.Change) > 0.05 {
				t.Logf("change %v inconsistent with base %v", q.Change, base)
				return false
			}
			if q.Volume < 1_000_000 || q.Volume >= 11_000_000 {
				return false
			}
			if q.MarketCap < 100_000_000_000 || q.MarketCap >= 2_100_000_000_000 {
				return false
			}
			return q.High52Week > q.Low52Week
		},
		gen.IntRange(0, len(symbols)-1), unit, unit, unit, unit,
	))

	properties.TestingRun(t)
}

func TestLockedRandomDeterministic(t *testing.T) {
	a := NewLockedRandom(42)
	b := NewLockedRandom(42)
	for i := 0; i < 10; i++ {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d differs: %v != %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
}
