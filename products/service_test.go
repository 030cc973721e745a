package products

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	svc, err := New(context.Background(), openTestStore(t), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

// WHAT: New on an empty store.
// WHY: The catalog must never be empty; the manual seed list backs it
// before any sync has run.
func TestNewSeedsEmptyStore(t *testing.T) {
	svc := newTestService(t, Config{})

	cat, err := svc.Query(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if cat.Total != 6 {
		t.Errorf("seeded total = %d, want 6", cat.Total)
	}
	if cat.Source != SourceManualSeed {
		t.Errorf("source = %q, want %q", cat.Source, SourceManualSeed)
	}
	for _, p := range cat.Products {
		if p.Source != SourceManualSeed {
			t.Errorf("product %q source = %q", p.Name, p.Source)
		}
	}
}

// WHAT: Query pagination bounds.
// WHY: Clients page with offset/limit; the limit is clamped to [1, 200]
// and out-of-range offsets return an empty page, never an error.
func TestQueryPagination(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{})

	for i := 0; i < 30; i++ {
		p := Product{Name: fmt.Sprintf("tool-%02d", i), Source: "test"}
		if err := svc.store.Upsert(ctx, p); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	// 30 inserted + 6 seeded.
	cat, err := svc.Query(ctx, QueryOptions{Offset: 0, Limit: 24})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if cat.Total != 36 || len(cat.Products) != 24 {
		t.Errorf("page 1: total=%d len=%d", cat.Total, len(cat.Products))
	}

	cat, err = svc.Query(ctx, QueryOptions{Offset: 24, Limit: 24})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(cat.Products) != 12 {
		t.Errorf("page 2 len = %d, want 12", len(cat.Products))
	}

	cat, err = svc.Query(ctx, QueryOptions{Offset: 1000, Limit: 24})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(cat.Products) != 0 || cat.Total != 36 {
		t.Errorf("past-end page: len=%d total=%d", len(cat.Products), cat.Total)
	}

	cat, err = svc.Query(ctx, QueryOptions{Offset: -5, Limit: 100000})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if cat.Offset != 0 || cat.Limit != 200 {
		t.Errorf("normalization: offset=%d limit=%d", cat.Offset, cat.Limit)
	}
}

// WHAT: Query text filter.
// WHY: The filter is a case-insensitive substring match over name,
// category, tags, and features.
func TestQueryFilter(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{})

	cat, err := svc.Query(ctx, QueryOptions{Q: "CHAT"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	// ChatGPT matches by name, GitHub Copilot by its chat feature.
	names := make(map[string]bool)
	for _, p := range cat.Products {
		names[p.Name] = true
	}
	if !names["ChatGPT"] {
		t.Errorf("name match missing: %v", names)
	}
	if !names["GitHub Copilot"] {
		t.Errorf("feature match missing: %v", names)
	}
	if names["Midjourney"] {
		t.Error("Midjourney should not match q=chat")
	}
	if cat.Total != len(cat.Products) {
		t.Errorf("total = %d, want %d (filtered count)", cat.Total, len(cat.Products))
	}
}

const testFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Launches</title>
<item><title>Acme Writer</title><link>https://example.com/acme</link>
<description>&lt;p&gt;AI writing assistant.&lt;/p&gt;</description></item>
<item><title>ChatGPT</title><link>https://chat.openai.com</link>
<description>New release.</description></item>
</channel></rss>`

// WHAT: SyncFeed merge semantics and idempotence.
// WHY: A feed entry with a known name replaces the stored record wholesale;
// syncing the same data twice must not change the record count.
func TestSyncFeed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{})
	svc.fetch = func(ctx context.Context, rawURL string) ([]byte, error) {
		return []byte(testFeed), nil
	}

	if err := svc.SyncFeed(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	cat, err := svc.Query(ctx, QueryOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	// 6 seeded + Acme Writer; ChatGPT replaced in place.
	if cat.Total != 7 {
		t.Errorf("total = %d, want 7", cat.Total)
	}
	if cat.Source != "rss_sync" {
		t.Errorf("source = %q, want rss_sync", cat.Source)
	}
	var chatgpt *Product
	for i := range cat.Products {
		if cat.Products[i].Name == "ChatGPT" {
			chatgpt = &cat.Products[i]
		}
	}
	if chatgpt == nil {
		t.Fatal("ChatGPT missing after sync")
	}
	if chatgpt.Source != SourceProductHunt || chatgpt.Summary != "New release." {
		t.Errorf("record not replaced wholesale: %+v", chatgpt)
	}

	if err := svc.SyncFeed(ctx); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	cat2, err := svc.Query(ctx, QueryOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if cat2.Total != cat.Total {
		t.Errorf("sync not idempotent: total %d -> %d", cat.Total, cat2.Total)
	}
}

// WHAT: SyncFeed when the upstream is down.
// WHY: A total feed failure surfaces as ErrUpstream rather than silently
// leaving the catalog meta untouched.
func TestSyncFeedUpstreamError(t *testing.T) {
	svc := newTestService(t, Config{})
	svc.fetch = func(ctx context.Context, rawURL string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	if err := svc.SyncFeed(context.Background()); !errors.Is(err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

// WHAT: SyncSources best-effort degradation.
// WHY: One dead directory must not block the sweep; the sync errors only
// when every configured source fails.
func TestSyncSourcesBestEffort(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Sources: []Source{
		{Name: "dead_directory", URL: "https://dead.example.com", Kind: "directory"},
		{Name: "live_list", URL: "https://live.example.com", Kind: "list"},
	}}
	svc := newTestService(t, cfg)
	svc.fetch = func(ctx context.Context, rawURL string) ([]byte, error) {
		if rawURL == "https://dead.example.com" {
			return nil, errors.New("timeout")
		}
		return []byte(`<html><body><h3>Fresh Tool</h3></body></html>`), nil
	}

	if err := svc.SyncSources(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	cat, err := svc.Query(ctx, QueryOptions{Q: "fresh tool"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if cat.Total != 1 {
		t.Errorf("live source product missing, total=%d", cat.Total)
	}
	if cat.Products[0].Source != "live_list" {
		t.Errorf("provenance = %q, want live_list", cat.Products[0].Source)
	}
}

// WHAT: SyncSources when every source fails.
func TestSyncSourcesAllFail(t *testing.T) {
	cfg := Config{Sources: []Source{{Name: "a", URL: "https://a.example.com"}}}
	svc := newTestService(t, cfg)
	svc.fetch = func(ctx context.Context, rawURL string) ([]byte, error) {
		return nil, errors.New("down")
	}
	if err := svc.SyncSources(context.Background()); !errors.Is(err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

// WHAT: MaybeRefresh staleness gate.
// WHY: Reads with refresh=true only hit the network when the catalog is
// older than the configured maximum age.
func TestMaybeRefresh(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{RefreshMaxAge: time.Hour})

	calls := 0
	svc.fetch = func(ctx context.Context, rawURL string) ([]byte, error) {
		calls++
		return []byte(testFeed), nil
	}

	// Fresh seed meta carries the current time; no sync expected.
	if err := svc.MaybeRefresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if calls != 0 {
		t.Errorf("fresh catalog triggered %d fetches", calls)
	}

	// Age the catalog past the threshold.
	stale := time.Now().Add(-2 * time.Hour).UnixMilli()
	if err := svc.store.SetMeta(ctx, stale, SourceManualSeed, []string{SourceManualSeed}); err != nil {
		t.Fatalf("set meta: %v", err)
	}
	if err := svc.MaybeRefresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if calls != 1 {
		t.Errorf("stale catalog triggered %d fetches, want 1", calls)
	}
}

// WHAT: Query re-syncs a stale catalog only when the caller asks for it.
// WHY: A plain read must never trigger an upstream fetch the caller did not
// request, no matter how old the catalog is.
func TestQueryRefreshFlag(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{RefreshMaxAge: time.Hour})

	calls := 0
	svc.fetch = func(ctx context.Context, rawURL string) ([]byte, error) {
		calls++
		return []byte(testFeed), nil
	}

	stale := time.Now().Add(-2 * time.Hour).UnixMilli()
	if err := svc.store.SetMeta(ctx, stale, SourceManualSeed, []string{SourceManualSeed}); err != nil {
		t.Fatalf("set meta: %v", err)
	}

	if _, err := svc.Query(ctx, QueryOptions{}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if calls != 0 {
		t.Errorf("plain query triggered %d fetches, want 0", calls)
	}

	if _, err := svc.Query(ctx, QueryOptions{Refresh: true}); err != nil {
		t.Fatalf("query refresh: %v", err)
	}
	if calls != 1 {
		t.Errorf("refresh query triggered %d fetches, want 1", calls)
	}
}

// WHAT: Sync dispatcher source ids.
func TestSyncDispatch(t *testing.T) {
	svc := newTestService(t, Config{})
	svc.fetch = func(ctx context.Context, rawURL string) ([]byte, error) {
		return []byte(testFeed), nil
	}
	if err := svc.Sync(context.Background(), "feed"); err != nil {
		t.Errorf("feed: %v", err)
	}
	if err := svc.Sync(context.Background(), "bogus"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("err = %v, want ErrUnknownSource", err)
	}
}
