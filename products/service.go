package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/hazyhaar/coursecast/idgen"
	"github.com/hazyhaar/coursecast/products/internal/feed"
	"github.com/hazyhaar/coursecast/safeurl"
)

// newSyncRunID correlates the log lines of one multi-source sweep.
var newSyncRunID = idgen.Prefixed("sync-", idgen.NanoID(6))

// Provenance labels for built-in sync sources.
const (
	SourceProductHunt = "product_hunt"
	SourceZapier      = "zapier_ai_list"
)

var (
	// ErrUpstream is returned when every upstream source of a sync failed.
	ErrUpstream = errors.New("products: upstream source unavailable")
	// ErrUnknownSource is returned by Sync for an unrecognized source id.
	ErrUnknownSource = errors.New("products: unknown sync source")
)

// Source is one configured external catalog source.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	// Kind selects the extraction strategy: "directory" walks /tool/ anchor
	// links, "list" (the default) collects article headings.
	Kind string `yaml:"kind"`
}

// Config carries catalog sync settings.
type Config struct {
	FeedURL       string
	ListURL       string
	Sources       []Source
	RefreshMaxAge time.Duration
	FetchTimeout  time.Duration
}

func (c *Config) defaults() {
	if c.FeedURL == "" {
		c.FeedURL = "https://www.producthunt.com/feed"
	}
	if c.ListURL == "" {
		c.ListURL = "https://zapier.com/blog/best-ai-productivity-tools/"
	}
	if c.RefreshMaxAge <= 0 {
		c.RefreshMaxAge = 24 * time.Hour
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 12 * time.Second
	}
}

// Service merges product records from configured sources into the catalog
// and serves filtered, paginated views of it.
type Service struct {
	store  *Store
	logger *slog.Logger
	config Config
	conv   *converter.Converter
	now    func() time.Time
	fetch  func(ctx context.Context, rawURL string) ([]byte, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates the catalog service. An empty store is seeded with the
// built-in product list so the catalog is never empty.
func New(ctx context.Context, store *Store, cfg Config, opts ...Option) (*Service, error) {
	cfg.defaults()
	s := &Service{
		store:  store,
		logger: slog.Default(),
		config: cfg,
		conv:   newMarkdownConverter(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetch == nil {
		client := &http.Client{Timeout: cfg.FetchTimeout}
		s.fetch = func(ctx context.Context, rawURL string) ([]byte, error) {
			return fetchURL(ctx, client, rawURL)
		}
	}
	if err := s.seedIfEmpty(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) seedIfEmpty(ctx context.Context) error {
	n, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	now := s.now().UnixMilli()
	if err := s.store.UpsertAll(ctx, seedProducts(now)); err != nil {
		return err
	}
	return s.store.SetMeta(ctx, now, SourceManualSeed, []string{SourceManualSeed})
}

// Pagination bounds applied to every catalog read.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// QueryOptions selects a catalog page. A zero Limit means the default page
// size; Refresh triggers a feed sync when the catalog is older than the
// configured maximum age.
type QueryOptions struct {
	Offset  int
	Limit   int
	Q       string
	Refresh bool
}

// Query returns one page of the catalog, optionally filtered by a
// case-insensitive substring match over name, category, tags, and features.
func (s *Service) Query(ctx context.Context, opts QueryOptions) (*Catalog, error) {
	if opts.Refresh {
		if err := s.MaybeRefresh(ctx); err != nil {
			// Stale data beats no data; serve what we have.
			s.logger.Warn("catalog refresh failed", "error", err)
		}
	}

	generatedAt, source, sources, err := s.store.Meta(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Products(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(opts.Q))
	filtered := all
	if needle != "" {
		filtered = filtered[:0:0]
		for _, p := range all {
			if p.matches(needle) {
				filtered = append(filtered, p)
			}
		}
	}

	offset := max(opts.Offset, 0)
	limit := opts.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	limit = max(min(limit, maxLimit), 1)

	total := len(filtered)
	start := min(offset, total)
	end := min(start+limit, total)

	return &Catalog{
		GeneratedAt: generatedAt,
		Source:      source,
		Sources:     sources,
		Products:    filtered[start:end],
		Total:       total,
		Offset:      offset,
		Limit:       limit,
	}, nil
}

// Sync runs the sync identified by sourceID: "feed" (RSS launch feed),
// "zapier" (curated list page), or "sources" (configured multi-source sweep).
func (s *Service) Sync(ctx context.Context, sourceID string) error {
	switch sourceID {
	case "", "feed", "rss":
		return s.SyncFeed(ctx)
	case "zapier":
		return s.SyncZapier(ctx)
	case "sources":
		return s.SyncSources(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, sourceID)
	}
}

// SyncFeed merges product launches from the RSS feed into the catalog.
func (s *Service) SyncFeed(ctx context.Context) error {
	body, err := s.fetch(ctx, s.config.FeedURL)
	if err != nil {
		return fmt.Errorf("%w: feed: %v", ErrUpstream, err)
	}
	f, err := feed.Parse(body)
	if err != nil {
		return fmt.Errorf("%w: feed: %v", ErrUpstream, err)
	}

	now := s.now().UnixMilli()
	batch := make([]Product, 0, len(f.Entries))
	for _, e := range f.Entries {
		if p, ok := s.entryProduct(e, now); ok {
			batch = append(batch, p)
		}
	}
	if err := s.store.UpsertAll(ctx, batch); err != nil {
		return err
	}
	s.logger.Info("feed sync merged", "source", SourceProductHunt, "incoming", len(batch))
	return s.store.SetMeta(ctx, now, "rss_sync",
		[]string{SourceManualSeed, SourceProductHunt})
}

// SyncZapier merges product names scraped from the curated list page.
func (s *Service) SyncZapier(ctx context.Context) error {
	body, err := s.fetch(ctx, s.config.ListURL)
	if err != nil {
		return fmt.Errorf("%w: list: %v", ErrUpstream, err)
	}
	names := headingNames(s.conv, string(body))

	now := s.now().UnixMilli()
	batch := make([]Product, 0, len(names))
	for _, name := range names {
		if p, ok := s.nameProduct(name, SourceZapier, s.config.ListURL, now); ok {
			batch = append(batch, p)
		}
	}
	if err := s.store.UpsertAll(ctx, batch); err != nil {
		return err
	}
	s.logger.Info("list sync merged", "source", SourceZapier, "incoming", len(batch))
	return s.store.SetMeta(ctx, now, SourceZapier,
		[]string{SourceManualSeed, SourceZapier, SourceProductHunt})
}

// SyncSources sweeps every configured source, merging best-effort: a source
// that fails to fetch or parse is logged and skipped. It returns ErrUpstream
// only when sources are configured and all of them failed.
func (s *Service) SyncSources(ctx context.Context) error {
	now := s.now().UnixMilli()
	sources := []string{SourceManualSeed}
	succeeded := 0
	log := s.logger.With("sync_run", newSyncRunID())

	for _, src := range s.config.Sources {
		if src.URL == "" {
			continue
		}
		label := src.Name
		if label == "" {
			label = src.URL
		}
		sources = append(sources, label)

		body, err := s.fetch(ctx, src.URL)
		if err != nil {
			log.Warn("source fetch failed", "source", label, "error", err)
			continue
		}
		var names []string
		if src.Kind == "directory" {
			names = directoryNames(string(body), "/tool/")
		} else {
			names = headingNames(s.conv, string(body))
		}

		batch := make([]Product, 0, len(names))
		for _, name := range names {
			if p, ok := s.nameProduct(name, label, src.URL, now); ok {
				batch = append(batch, p)
			}
		}
		if err := s.store.UpsertAll(ctx, batch); err != nil {
			return err
		}
		log.Info("source sync merged", "source", label, "incoming", len(batch))
		succeeded++
	}

	if len(s.config.Sources) > 0 && succeeded == 0 {
		return fmt.Errorf("%w: all %d configured sources failed", ErrUpstream, len(s.config.Sources))
	}
	return s.store.SetMeta(ctx, now, "multi_source_sync", sources)
}

// MaybeRefresh runs a feed sync when the catalog has never been synced or
// is older than the configured maximum age.
func (s *Service) MaybeRefresh(ctx context.Context) error {
	generatedAt, _, _, err := s.store.Meta(ctx)
	if err != nil {
		return err
	}
	if generatedAt > 0 && s.now().Sub(time.UnixMilli(generatedAt)) <= s.config.RefreshMaxAge {
		return nil
	}
	return s.SyncFeed(ctx)
}

func (s *Service) entryProduct(e feed.Entry, now int64) (Product, bool) {
	title := stripHTML(e.Title)
	if title == "" {
		return Product{}, false
	}
	summary := stripHTML(e.Description)
	if summary == "" {
		summary = "AI product update from public feeds."
	}
	return Product{
		Name:             title,
		Summary:          summary,
		ValueProposition: summary,
		Category:         "AI Product",
		Pricing:          "Unknown",
		Features:         []string{},
		WebsiteURL:       e.Link,
		Tags:             inferTags(title + " " + summary),
		Source:           SourceProductHunt,
		LastUpdated:      now,
	}, true
}

func (s *Service) nameProduct(name, source, sourceURL string, now int64) (Product, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, false
	}
	return Product{
		Name:             name,
		Summary:          "Listed as a leading AI productivity tool.",
		ValueProposition: "Highlighted in industry lists as a top AI tool.",
		Category:         "AI Productivity",
		Pricing:          "Unknown",
		Features:         []string{},
		Tags:             inferTags(name),
		Source:           source,
		SourceURL:        sourceURL,
		LastUpdated:      now,
	}, true
}

func fetchURL(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if err := safeurl.Validate(rawURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "coursecast/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("products: GET %s: status %d", rawURL, resp.StatusCode)
	}
	return safeurl.LimitedReadAll(resp.Body, safeurl.MaxResponseBody)
}
