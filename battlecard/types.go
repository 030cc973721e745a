// Package battlecard synthesizes competitive-intelligence reports from the
// recent videos of up to four channels. Per-video LLM analyses are merged
// into categorized, deduplicated findings, each traceable to its source
// video through the evidence store.
package battlecard

import "strings"

// Confidence is the coarse reliability label attached to LLM-derived findings.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// NormalizeConfidence maps arbitrary labels onto the known set. Anything
// unknown or absent becomes low: the engine decides the default, not the UI.
func NormalizeConfidence(s string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceMedium:
		return ConfidenceMedium
	case ConfidenceHigh:
		return ConfidenceHigh
	default:
		return ConfidenceLow
	}
}

func confidenceRank(c Confidence) int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// Finding is one categorized signal extracted from a video.
type Finding struct {
	Item       string     `json:"item"`
	ChannelURL string     `json:"channel_url,omitempty"`
	VideoURL   string     `json:"video_url,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// VideoSummary is the per-video study summary entry.
type VideoSummary struct {
	VideoURL   string     `json:"video_url"`
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Confidence Confidence `json:"confidence"`
}

// SentimentShift is the tone signal across all analyzed videos. Status
// "unknown" is a sentinel the engine always emits when no video yields a
// signal above low confidence; rendering it is the client's choice.
type SentimentShift struct {
	Status     string     `json:"status"`
	Summary    string     `json:"summary"`
	Confidence Confidence `json:"confidence"`
}

// ChannelNote records per-channel processing outcome, including degrade
// notes for channels that failed to fetch.
type ChannelNote struct {
	ChannelURL string `json:"channel_url"`
	Notes      string `json:"notes"`
}

// Battlecard is the synthesized report body.
type Battlecard struct {
	Summary         string         `json:"summary"`
	Concepts        []string       `json:"concepts"`
	VideoSummaries  []VideoSummary `json:"video_summaries"`
	NewFeatures     []Finding      `json:"new_features"`
	PricingChanges  []Finding      `json:"pricing_changes"`
	MessagingShifts []Finding      `json:"messaging_shifts"`
	SentimentShift  SentimentShift `json:"sentiment_shift"`
	Channels        []ChannelNote  `json:"channels"`
}

// Evidence is one transcript-derived snippet tied to its source video.
type Evidence struct {
	ChannelURL string `json:"channel_url"`
	VideoURL   string `json:"video_url"`
	Text       string `json:"text"`
}

// Report is the full battlecard response: card plus the evidence used to
// produce it.
type Report struct {
	GeneratedAt string     `json:"generated_at"`
	Battlecard  Battlecard `json:"battlecard"`
	Evidence    []Evidence `json:"evidence"`
}

const unknownSentimentSummary = "Insufficient transcript data to assess sentiment shift."

func unknownSentiment() SentimentShift {
	return SentimentShift{
		Status:     "unknown",
		Summary:    unknownSentimentSummary,
		Confidence: ConfidenceLow,
	}
}
