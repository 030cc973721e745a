package products

import (
	"slices"
	"testing"
)

// WHAT: headingNames on a listicle page.
// WHY: Curated "best tools" articles name one product per h2/h3 heading;
// numbering and emphasis markup must be stripped and duplicates dropped.
func TestHeadingNames(t *testing.T) {
	page := `<html><body>
		<h1>The 10 best AI productivity tools</h1>
		<h2>1. Zapier</h2>
		<p>Automation.</p>
		<h3><strong>Notion AI</strong></h3>
		<p>Docs.</p>
		<h3>Notion AI</h3>
		<h3>This heading is far too long to plausibly be a product name at all</h3>
	</body></html>`

	names := headingNames(newMarkdownConverter(), page)
	if !slices.Contains(names, "Zapier") {
		t.Errorf("missing Zapier in %v", names)
	}
	if !slices.Contains(names, "Notion AI") {
		t.Errorf("missing Notion AI in %v", names)
	}
	count := 0
	for _, n := range names {
		if n == "Notion AI" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Notion AI appears %d times, want 1", count)
	}
	for _, n := range names {
		if len(n) > 80 {
			t.Errorf("overlong candidate kept: %q", n)
		}
	}
}

// WHAT: directoryNames with anchor text and slug fallback.
// WHY: Tool directories link products at /tool/<slug>; anchor text is the
// display name, and bare links still yield a name from the slug.
func TestDirectoryNames(t *testing.T) {
	page := `<html><body>
		<a href="/tool/github-copilot">GitHub Copilot</a>
		<a href="https://example.com/tool/perplexity-ai?ref=home"></a>
		<a href="/pricing">Pricing</a>
	</body></html>`

	names := directoryNames(page, "/tool/")
	if !slices.Contains(names, "GitHub Copilot") {
		t.Errorf("missing anchor-text name in %v", names)
	}
	if !slices.Contains(names, "Perplexity Ai") {
		t.Errorf("missing slug-derived name in %v", names)
	}
	if slices.Contains(names, "Pricing") {
		t.Errorf("non-tool link leaked into %v", names)
	}
}

// WHAT: inferTags keyword buckets.
// WHY: Feed entries carry no structured tags; coarse keyword tags keep the
// catalog searchable by theme.
func TestInferTags(t *testing.T) {
	tags := inferTags("An AI coding assistant for video editing")
	for _, want := range []string{"video", "developer", "assistant", "ai"} {
		if !slices.Contains(tags, want) {
			t.Errorf("missing tag %q in %v", want, tags)
		}
	}
	if len(inferTags("nothing relevant here")) != 0 {
		t.Error("expected no tags for unrelated text")
	}
}

// WHAT: stripHTML entity and markup handling.
func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Fast &amp; <b>simple</b></p>")
	if got != "Fast & simple" {
		t.Errorf("stripHTML = %q", got)
	}
}
