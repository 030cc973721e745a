package battlecard

import "strings"

// dedupeKey normalizes an item title for duplicate detection:
// case-insensitive, whitespace-collapsed, keyed with the source video URL.
func dedupeKey(item, videoURL string) string {
	return strings.Join(strings.Fields(strings.ToLower(item)), " ") + "|" + videoURL
}

// dedupeFindings removes duplicate (item, video_url) findings within one
// category, keeping the higher-confidence instance. On equal confidence the
// first encountered wins, so output is reproducible for identical inputs.
func dedupeFindings(in []Finding) []Finding {
	if len(in) == 0 {
		return in
	}
	index := make(map[string]int, len(in))
	out := make([]Finding, 0, len(in))
	for _, f := range in {
		key := dedupeKey(f.Item, f.VideoURL)
		if i, seen := index[key]; seen {
			if confidenceRank(f.Confidence) > confidenceRank(out[i].Confidence) {
				out[i] = f
			}
			continue
		}
		index[key] = len(out)
		out = append(out, f)
	}
	return out
}

// dedupeSummaries removes duplicate video summaries by video URL, first
// encountered wins.
func dedupeSummaries(in []VideoSummary) []VideoSummary {
	seen := make(map[string]bool, len(in))
	out := make([]VideoSummary, 0, len(in))
	for _, s := range in {
		if s.VideoURL != "" && seen[s.VideoURL] {
			continue
		}
		seen[s.VideoURL] = true
		out = append(out, s)
	}
	return out
}

// dedupeStrings removes duplicate concepts case-insensitively, capped at max.
func dedupeStrings(in []string, max int) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
