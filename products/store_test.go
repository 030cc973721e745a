package products

import (
	"context"
	"testing"

	"github.com/hazyhaar/coursecast/dbopen"
	_ "modernc.org/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

// WHAT: Upsert with an existing normalized name.
// WHY: Catalog identity is the normalized name; a later sync must replace
// the stored record wholesale, never field-merge it.
func TestUpsertReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := Product{
		Name:     "Acme AI",
		Summary:  "Original summary.",
		Category: "Assistant",
		Features: []string{"chat"},
		Source:   "manual_seed",
	}
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second := Product{
		Name:    "ACME   AI", // same identity under normalization
		Summary: "Fresh summary.",
		Source:  "product_hunt",
	}
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}

	all, err := store.Products(ctx)
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("records = %d, want 1", len(all))
	}
	got := all[0]
	if got.Summary != "Fresh summary." || got.Source != "product_hunt" {
		t.Errorf("record not replaced: %+v", got)
	}
	if got.Category != "" || len(got.Features) != 0 {
		t.Errorf("stale fields survived replacement: %+v", got)
	}
}

// WHAT: Upsert with a blank name.
// WHY: The empty normalized key would collapse unrelated records.
func TestUpsertRejectsEmptyName(t *testing.T) {
	store := openTestStore(t)
	if err := store.Upsert(context.Background(), Product{Name: "   "}); err == nil {
		t.Error("expected error for blank name")
	}
}

// WHAT: Meta on a fresh store, then after SetMeta.
// WHY: A zero generated_at signals that the catalog was never synced,
// which drives the staleness refresh.
func TestMetaRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	generatedAt, _, _, err := store.Meta(ctx)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if generatedAt != 0 {
		t.Errorf("fresh store generated_at = %d, want 0", generatedAt)
	}

	if err := store.SetMeta(ctx, 1234, "rss_sync", []string{"manual_seed", "product_hunt"}); err != nil {
		t.Fatalf("set meta: %v", err)
	}
	generatedAt, source, sources, err := store.Meta(ctx)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if generatedAt != 1234 || source != "rss_sync" || len(sources) != 2 {
		t.Errorf("meta = (%d, %q, %v)", generatedAt, source, sources)
	}
}

// WHAT: Products ordering.
// WHY: Pages must be stable across reads for offset pagination to make sense.
func TestProductsOrderedByNormalizedName(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, name := range []string{"zeta", "Alpha", "midway"} {
		if err := store.Upsert(ctx, Product{Name: name}); err != nil {
			t.Fatalf("upsert %q: %v", name, err)
		}
	}
	all, err := store.Products(ctx)
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	want := []string{"Alpha", "midway", "zeta"}
	for i, w := range want {
		if all[i].Name != w {
			t.Errorf("order[%d] = %q, want %q", i, all[i].Name, w)
		}
	}
}
