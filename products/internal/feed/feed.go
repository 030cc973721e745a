// Package feed parses RSS 2.0 and Atom 1.0 feeds using encoding/xml.
//
// Auto-detects format from the XML root element:
//   - <rss ...> → RSS 2.0
//   - <feed ...> → Atom 1.0
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Entry represents one item in a feed.
type Entry struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Published   string `json:"published"`
}

// Feed represents a parsed RSS or Atom feed.
type Feed struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

// Parse auto-detects and parses RSS 2.0 or Atom 1.0 XML.
func Parse(data []byte) (*Feed, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("feed: empty data")
	}

	switch detectFormat(trimmed) {
	case "rss":
		return parseRSS(data)
	case "atom":
		return parseAtom(data)
	default:
		return nil, fmt.Errorf("feed: unknown format (expected <rss> or <feed>)")
	}
}

func detectFormat(data []byte) string {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok {
			switch strings.ToLower(se.Name.Local) {
			case "rss", "rdf":
				return "rss"
			case "feed":
				return "atom"
			default:
				return ""
			}
		}
	}
}

// --- RSS 2.0 ---

type rssRoot struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	GUID        string `xml:"guid"`
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

func parseRSS(data []byte) (*Feed, error) {
	var root rssRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: parse rss: %w", err)
	}

	f := &Feed{
		Title:   strings.TrimSpace(root.Channel.Title),
		Entries: make([]Entry, 0, len(root.Channel.Items)),
	}
	for _, item := range root.Channel.Items {
		guid := strings.TrimSpace(item.GUID)
		if guid == "" {
			guid = strings.TrimSpace(item.Link)
		}
		f.Entries = append(f.Entries, Entry{
			GUID:        guid,
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Description: strings.TrimSpace(item.Description),
			Published:   strings.TrimSpace(item.PubDate),
		})
	}
	return f, nil
}

// --- Atom 1.0 ---

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string     `xml:"id"`
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

func parseAtom(data []byte) (*Feed, error) {
	var root atomFeed
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: parse atom: %w", err)
	}

	f := &Feed{
		Title:   strings.TrimSpace(root.Title),
		Entries: make([]Entry, 0, len(root.Entries)),
	}
	for _, entry := range root.Entries {
		link := atomEntryLink(entry.Links)
		guid := strings.TrimSpace(entry.ID)
		if guid == "" {
			guid = link
		}
		published := strings.TrimSpace(entry.Published)
		if published == "" {
			published = strings.TrimSpace(entry.Updated)
		}
		f.Entries = append(f.Entries, Entry{
			GUID:        guid,
			Title:       strings.TrimSpace(entry.Title),
			Link:        link,
			Description: strings.TrimSpace(entry.Summary),
			Published:   published,
		})
	}
	return f, nil
}

func atomEntryLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "" || l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}
