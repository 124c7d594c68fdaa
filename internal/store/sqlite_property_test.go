package store

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: for any duplicate-free symbol list, saving then loading returns
// the same symbols in the same order.
func TestProperty_WatchlistRoundTripPreservesOrder(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "roundtrip.db"), "watchlist-storage")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("save then load preserves order", prop.ForAll(
		func(ids []int) bool {
			ctx := context.Background()

			seen := map[int]bool{}
			symbols := []string{}
			for _, id := range ids {
				if seen[id] {
					continue
				}
				seen[id] = true
				symbols = append(symbols, fmt.Sprintf("SYM%d", id))
			}

			if err := store.Save(ctx, symbols); err != nil {
				t.Logf("Failed to save: %v", err)
				return false
			}
			got, err := store.Load(ctx)
			if err != nil {
				t.Logf("Failed to load: %v", err)
				return false
			}
			return reflect.DeepEqual(got, symbols)
		},
		gen.SliceOf(gen.IntRange(0, 30)),
	))

	properties.TestingRun(t)
}
