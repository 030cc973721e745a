package products

import (
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

var sanitizer = bluemonday.StrictPolicy()

// stripHTML removes all markup and decodes entities.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(s)))
}

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

// headingNames extracts candidate product names from an article page by
// converting it to markdown and collecting level 2 and 3 headings. Listicle
// pages ("best AI tools" roundups) name one product per heading.
func headingNames(conv *converter.Converter, pageHTML string) []string {
	if strings.TrimSpace(pageHTML) == "" {
		return nil
	}
	md, err := conv.ConvertString(pageHTML)
	if err != nil {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		var name string
		switch {
		case strings.HasPrefix(line, "### "):
			name = strings.TrimPrefix(line, "### ")
		case strings.HasPrefix(line, "## "):
			name = strings.TrimPrefix(line, "## ")
		default:
			continue
		}
		name = cleanCandidateName(name)
		if name == "" || seen[NameKey(name)] {
			continue
		}
		seen[NameKey(name)] = true
		names = append(names, name)
	}
	return names
}

// cleanCandidateName strips markdown emphasis and numbering from a heading
// and rejects strings that do not look like product names.
func cleanCandidateName(s string) string {
	s = strings.Trim(s, "*_ \t")
	s = strings.TrimLeft(s, "0123456789.) ")
	s = strings.TrimSpace(s)
	if n := len(s); n < 2 || n > 80 {
		return ""
	}
	if len(strings.Fields(s)) > 6 {
		return ""
	}
	return s
}

// directoryNames extracts product names from a tool-directory page by
// walking anchors whose href contains pathSegment (for example "/tool/").
// Anchor text wins; an empty anchor falls back to the URL slug.
func directoryNames(pageHTML, pathSegment string) []string {
	doc, err := xhtml.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = cleanCandidateName(name)
		if name == "" || seen[NameKey(name)] {
			return
		}
		seen[NameKey(name)] = true
		names = append(names, name)
	}
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); strings.Contains(href, pathSegment) {
				if text := strings.TrimSpace(nodeText(n)); text != "" {
					add(text)
				} else {
					add(slugToTitle(slugAfter(href, pathSegment)))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return names
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *xhtml.Node) string {
	var b strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// slugAfter returns the URL path segment directly after marker, with query
// strings and fragments removed.
func slugAfter(href, marker string) string {
	_, rest, ok := strings.Cut(href, marker)
	if !ok {
		return ""
	}
	for _, stop := range []string{"/", "?", "#"} {
		if i := strings.Index(rest, stop); i >= 0 {
			rest = rest[:i]
		}
	}
	return rest
}

// slugToTitle turns "github-copilot" into "Github Copilot".
func slugToTitle(slug string) string {
	words := strings.Fields(strings.ReplaceAll(strings.Trim(slug, "/"), "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var tagKeywords = []struct {
	tag      string
	keywords []string
}{
	{"image", []string{"image", "design", "art"}},
	{"video", []string{"video", "editing", "film"}},
	{"developer", []string{"code", "developer", "coding"}},
	{"research", []string{"search", "research"}},
	{"assistant", []string{"assistant", "chat"}},
	{"llm", []string{"llm", "language model"}},
	{"ai", []string{"ai"}},
}

const maxInferredTags = 6

// inferTags derives coarse tags from a product name and summary.
func inferTags(text string) []string {
	t := strings.ToLower(text)
	var tags []string
	for _, tk := range tagKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(t, kw) {
				tags = append(tags, tk.tag)
				break
			}
		}
		if len(tags) == maxInferredTags {
			break
		}
	}
	return tags
}
