package battlecard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hazyhaar/coursecast/llm"
	"github.com/hazyhaar/coursecast/youtube"
)

// videoAnalysis is the structured output requested from the LLM for one
// video. Category assignment comes from here, never re-derived locally.
type videoAnalysis struct {
	Summary         string          `json:"summary"`
	Confidence      string          `json:"confidence"`
	Concepts        []string        `json:"concepts"`
	NewFeatures     []analysisItem  `json:"new_features"`
	PricingChanges  []analysisItem  `json:"pricing_changes"`
	MessagingShifts []analysisItem  `json:"messaging_shifts"`
	Sentiment       *sentimentValue `json:"sentiment_shift"`
}

type analysisItem struct {
	Item       string `json:"item"`
	Confidence string `json:"confidence"`
}

type sentimentValue struct {
	Status     string `json:"status"`
	Summary    string `json:"summary"`
	Confidence string `json:"confidence"`
}

const analyzeSystemPrompt = "You analyze competitor YouTube videos for weekly battlecards. " +
	"From the transcript snippets, extract (1) new features announced, " +
	"(2) pricing changes mentioned, (3) shifts in marketing messaging, and " +
	"(4) any sentiment signal you can infer from tone. Be concise and " +
	"evidence-based. If evidence is weak, state low confidence."

// analyzeVideo asks the LLM for a per-video analysis built from transcript
// snippets, or from title/description only when snippets are empty.
func (e *Engine) analyzeVideo(ctx context.Context, video youtube.Video, snippets []string) (*videoAnalysis, error) {
	payload := map[string]any{
		"title":       video.Title,
		"description": truncate(video.Description, 1000),
		"snippets":    snippets,
		"required_format": map[string]any{
			"summary":    "string",
			"confidence": "low|medium|high",
			"concepts":   []string{"string"},
			"new_features": []map[string]string{
				{"item": "string", "confidence": "low|medium|high"},
			},
			"pricing_changes": []map[string]string{
				{"item": "string", "confidence": "low|medium|high"},
			},
			"messaging_shifts": []map[string]string{
				{"item": "string", "confidence": "low|medium|high"},
			},
			"sentiment_shift": map[string]string{
				"status": "string", "summary": "string", "confidence": "low|medium|high",
			},
		},
	}
	if len(snippets) == 0 {
		payload["note"] = "No transcript available. Classify from title/description only and return low confidence."
	}
	user, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("battlecard: marshal prompt: %w", err)
	}

	content, err := e.llm.Complete(ctx, llm.Request{
		JSONObject: true,
		Messages: []llm.Message{
			{Role: "system", Content: analyzeSystemPrompt},
			{Role: "user", Content: string(user)},
		},
	})
	if err != nil {
		return nil, err
	}
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, err
	}
	var out videoAnalysis
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("battlecard: decode analysis: %w", err)
	}
	return &out, nil
}

// Keyword heuristics for the last-resort path when the LLM call itself
// fails. Everything classified here is low confidence.
var fallbackKeywords = map[string][]string{
	"pricing_changes": {
		"price", "pricing", "plan", "subscription", "$", "cost", "tier",
		"billing", "discount", "trial", "free", "paid", "upgrade",
	},
	"new_features": {
		"feature", "launch", "introduc", "release", "update", "new",
		"announc", "rollout", "beta", "preview", "capability",
	},
	"messaging_shifts": {
		"position", "mission", "vision", "strategy", "rebrand",
		"new direction", "our focus", "next chapter", "future of",
	},
}

func matchKeywords(text string, keywords []string) bool {
	t := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// classifyByKeywords builds a low-confidence analysis from video metadata.
func classifyByKeywords(video youtube.Video) *videoAnalysis {
	combined := video.Title + " " + video.Description
	out := &videoAnalysis{
		Summary:    firstNonEmpty(strings.TrimSpace(video.Description), video.Title, "Summary unavailable."),
		Confidence: string(ConfidenceLow),
	}
	if video.Title != "" {
		out.Concepts = []string{video.Title}
	}
	item := analysisItem{Item: video.Title, Confidence: string(ConfidenceLow)}
	if matchKeywords(combined, fallbackKeywords["pricing_changes"]) {
		out.PricingChanges = append(out.PricingChanges, item)
	}
	if matchKeywords(combined, fallbackKeywords["new_features"]) {
		out.NewFeatures = append(out.NewFeatures, item)
	}
	if matchKeywords(combined, fallbackKeywords["messaging_shifts"]) {
		out.MessagingShifts = append(out.MessagingShifts, item)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
