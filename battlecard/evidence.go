package battlecard

import "github.com/hazyhaar/coursecast/youtube"

// EvidenceStore groups raw per-video snippets by video. It is built once
// per synthesis run, before any enrichment reads it, and never mutated
// afterward.
type EvidenceStore struct {
	groups map[string]*evidenceGroup // keyed by canonical watch URL
	order  []string                  // keys in insertion order
}

type evidenceGroup struct {
	channelURL string
	snippets   []snippet
}

// snippet pairs a transcript excerpt with its deep link into the video.
type snippet struct {
	text string
	url  string
}

// NewEvidenceStore creates an empty store.
func NewEvidenceStore() *EvidenceStore {
	return &EvidenceStore{groups: make(map[string]*evidenceGroup)}
}

// Add appends a snippet for a video, keyed by the canonical watch URL and
// deep-linked at the snippet's start offset. The group's channel URL is
// resolved first-non-empty-wins.
func (e *EvidenceStore) Add(videoID, channelURL, text string, start float64) {
	if videoID == "" || text == "" {
		return
	}
	key := youtube.WatchURL(videoID)
	g, ok := e.groups[key]
	if !ok {
		g = &evidenceGroup{}
		e.groups[key] = g
		e.order = append(e.order, key)
	}
	if g.channelURL == "" {
		g.channelURL = channelURL
	}
	g.snippets = append(g.snippets, snippet{
		text: text,
		url:  youtube.WatchURLAt(videoID, start),
	})
}

// Lookup returns the first snippet text and resolved channel URL for a
// video's canonical watch URL. Both are empty when the video has no
// evidence; that is never an error.
func (e *EvidenceStore) Lookup(videoURL string) (text, channelURL string) {
	g, ok := e.groups[videoURL]
	if !ok || len(g.snippets) == 0 {
		return "", ""
	}
	return g.snippets[0].text, g.channelURL
}

// Items flattens the store into evidence entries, videos in insertion order
// and snippets in append order within each video. Entries carry the
// deep-linked URL so a reader lands at the quoted moment.
func (e *EvidenceStore) Items() []Evidence {
	var out []Evidence
	for _, key := range e.order {
		g := e.groups[key]
		for _, s := range g.snippets {
			out = append(out, Evidence{
				ChannelURL: g.channelURL,
				VideoURL:   s.url,
				Text:       s.text,
			})
		}
	}
	return out
}

// enrich fills a finding's channel URL from the evidence group of its video.
// Findings without a matching group pass through unchanged.
func (e *EvidenceStore) enrich(findings []Finding) []Finding {
	for i := range findings {
		if findings[i].VideoURL == "" || findings[i].ChannelURL != "" {
			continue
		}
		_, ch := e.Lookup(findings[i].VideoURL)
		findings[i].ChannelURL = ch
	}
	return findings
}
