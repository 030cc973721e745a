// Package products maintains the AI product catalog: a deduplicated,
// searchable collection of product records merged from heterogeneous
// sources (manual seed list, RSS launch feeds, scraped directories).
//
// Record identity is the normalized product name. When a sync observes a
// name that already exists, the incoming record replaces the stored one
// wholesale; records are never field-merged across sources.
package products

import "strings"

// Product is one catalog entry.
type Product struct {
	Name             string   `json:"name"`
	Summary          string   `json:"summary"`
	ValueProposition string   `json:"value_proposition"`
	Category         string   `json:"category"`
	Pricing          string   `json:"pricing"`
	Features         []string `json:"features"`
	WebsiteURL       string   `json:"website_url"`
	VideoURL         string   `json:"video_url"`
	Tags             []string `json:"tags"`
	Source           string   `json:"source"`
	SourceURL        string   `json:"source_url,omitempty"`
	LastUpdated      int64    `json:"last_updated"`
}

// Catalog is a paginated view of the product collection plus sync metadata.
type Catalog struct {
	GeneratedAt int64     `json:"generated_at"`
	Source      string    `json:"source"`
	Sources     []string  `json:"sources"`
	Products    []Product `json:"products"`
	Total       int       `json:"total"`
	Offset      int       `json:"offset"`
	Limit       int       `json:"limit"`
}

// NameKey returns the catalog identity key for a product name:
// lowercased with whitespace runs collapsed to single spaces.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// matches reports whether the product matches a lowercased query needle
// against name, category, tags, and features.
func (p Product) matches(needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Category), needle) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	for _, f := range p.Features {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
