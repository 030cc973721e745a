package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	name_key          TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	summary           TEXT NOT NULL DEFAULT '',
	value_proposition TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL DEFAULT '',
	pricing           TEXT NOT NULL DEFAULT '',
	features          TEXT NOT NULL DEFAULT '[]',
	website_url       TEXT NOT NULL DEFAULT '',
	video_url         TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '[]',
	source            TEXT NOT NULL DEFAULT '',
	source_url        TEXT NOT NULL DEFAULT '',
	last_updated      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS catalog_meta (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	generated_at INTEGER NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	sources      TEXT NOT NULL DEFAULT '[]'
);
`

// Store persists the product catalog in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore prepares the catalog tables on an open database handle.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("products: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Upsert inserts a product or replaces the stored record wholesale when the
// normalized name already exists.
func (s *Store) Upsert(ctx context.Context, p Product) error {
	return upsertIn(ctx, s.db, p)
}

// UpsertAll applies Upsert to a batch inside a single transaction.
func (s *Store) UpsertAll(ctx context.Context, batch []Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("products: begin: %w", err)
	}
	defer tx.Rollback()
	for _, p := range batch {
		if err := upsertIn(ctx, tx, p); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("products: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertIn(ctx context.Context, db execer, p Product) error {
	key := NameKey(p.Name)
	if key == "" {
		return errors.New("products: empty product name")
	}
	features, err := json.Marshal(emptyIfNil(p.Features))
	if err != nil {
		return fmt.Errorf("products: marshal features: %w", err)
	}
	tags, err := json.Marshal(emptyIfNil(p.Tags))
	if err != nil {
		return fmt.Errorf("products: marshal tags: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO products
			(name_key, name, summary, value_proposition, category, pricing,
			 features, website_url, video_url, tags, source, source_url, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name_key) DO UPDATE SET
			name = excluded.name,
			summary = excluded.summary,
			value_proposition = excluded.value_proposition,
			category = excluded.category,
			pricing = excluded.pricing,
			features = excluded.features,
			website_url = excluded.website_url,
			video_url = excluded.video_url,
			tags = excluded.tags,
			source = excluded.source,
			source_url = excluded.source_url,
			last_updated = excluded.last_updated`,
		key, p.Name, p.Summary, p.ValueProposition, p.Category, p.Pricing,
		string(features), p.WebsiteURL, p.VideoURL, string(tags),
		p.Source, p.SourceURL, p.LastUpdated)
	if err != nil {
		return fmt.Errorf("products: upsert %q: %w", p.Name, err)
	}
	return nil
}

// Products returns every catalog record ordered by normalized name.
func (s *Store) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, summary, value_proposition, category, pricing,
		       features, website_url, video_url, tags, source, source_url, last_updated
		FROM products ORDER BY name_key`)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		var features, tags string
		if err := rows.Scan(&p.Name, &p.Summary, &p.ValueProposition, &p.Category,
			&p.Pricing, &features, &p.WebsiteURL, &p.VideoURL, &tags,
			&p.Source, &p.SourceURL, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("products: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
			return nil, fmt.Errorf("products: decode features for %q: %w", p.Name, err)
		}
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("products: decode tags for %q: %w", p.Name, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns the number of catalog records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("products: count: %w", err)
	}
	return n, nil
}

// Meta returns the catalog-level sync metadata. A store that has never been
// synced reports a zero generated_at.
func (s *Store) Meta(ctx context.Context) (generatedAt int64, source string, sources []string, err error) {
	var raw string
	row := s.db.QueryRowContext(ctx, `SELECT generated_at, source, sources FROM catalog_meta WHERE id = 1`)
	switch err = row.Scan(&generatedAt, &source, &raw); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, "", nil, nil
	case err != nil:
		return 0, "", nil, fmt.Errorf("products: meta: %w", err)
	}
	if err = json.Unmarshal([]byte(raw), &sources); err != nil {
		return 0, "", nil, fmt.Errorf("products: decode meta sources: %w", err)
	}
	return generatedAt, source, sources, nil
}

// SetMeta records the catalog-level sync metadata.
func (s *Store) SetMeta(ctx context.Context, generatedAt int64, source string, sources []string) error {
	raw, err := json.Marshal(emptyIfNil(sources))
	if err != nil {
		return fmt.Errorf("products: marshal meta sources: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalog_meta (id, generated_at, source, sources)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			generated_at = excluded.generated_at,
			source = excluded.source,
			sources = excluded.sources`,
		generatedAt, source, string(raw))
	if err != nil {
		return fmt.Errorf("products: set meta: %w", err)
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
