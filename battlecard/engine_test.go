package battlecard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hazyhaar/coursecast/llm"
	"github.com/hazyhaar/coursecast/youtube"
)

// fakeYT serves canned channels keyed by input URL.
type fakeYT struct {
	channels    map[string][]youtube.Video
	transcripts map[string][]youtube.TranscriptChunk
	failing     map[string]bool
}

func (f *fakeYT) PlaylistVideos(ctx context.Context, url string, limit int) ([]youtube.Video, error) {
	return nil, errors.New("not used")
}

func (f *fakeYT) ChannelVideos(ctx context.Context, url string, limit int) (youtube.Channel, []youtube.Video, error) {
	if f.failing[url] {
		return youtube.Channel{}, nil, errors.New("connection refused")
	}
	videos, ok := f.channels[url]
	if !ok {
		return youtube.Channel{}, nil, errors.New("unknown channel")
	}
	if len(videos) > limit {
		videos = videos[:limit]
	}
	return youtube.Channel{URL: url, Title: "chan"}, videos, nil
}

func (f *fakeYT) Transcript(ctx context.Context, videoID string) ([]youtube.TranscriptChunk, error) {
	chunks, ok := f.transcripts[videoID]
	if !ok {
		return nil, youtube.ErrNoTranscript
	}
	return chunks, nil
}

// fakeLLM answers every analysis call with the same videoAnalysis, or errors.
type fakeLLM struct {
	analysis *videoAnalysis
	err      error
	// perVideo overrides the default analysis by video title.
	perVideo map[string]*videoAnalysis
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	a := f.analysis
	if f.perVideo != nil {
		var payload struct {
			Title string `json:"title"`
		}
		json.Unmarshal([]byte(req.Messages[len(req.Messages)-1].Content), &payload)
		if v, ok := f.perVideo[payload.Title]; ok {
			a = v
		}
	}
	data, err := json.Marshal(a)
	return string(data), err
}

func chan4(failing ...string) *fakeYT {
	f := &fakeYT{
		channels:    make(map[string][]youtube.Video),
		transcripts: map[string][]youtube.TranscriptChunk{},
		failing:     make(map[string]bool),
	}
	for i := 1; i <= 4; i++ {
		url := fmt.Sprintf("https://www.youtube.com/channel/UC%d", i)
		vid := fmt.Sprintf("vid%d", i)
		f.channels[url] = []youtube.Video{{ID: vid, Title: fmt.Sprintf("Video %d", i)}}
		f.transcripts[vid] = []youtube.TranscriptChunk{{Start: 0, Text: "snippet " + vid}}
	}
	for _, u := range failing {
		f.failing[u] = true
	}
	return f
}

func TestGenerateValidatesChannelCount(t *testing.T) {
	// WHAT: 0 or >4 channels fail with ErrInvalidInput.
	// WHY: The request bound is part of the public contract.
	e := New(chan4(), &fakeLLM{analysis: &videoAnalysis{}}, Config{}, nil)

	if _, err := e.Generate(context.Background(), nil, 4); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty: got %v", err)
	}
	five := make([]string, 5)
	for i := range five {
		five[i] = fmt.Sprintf("https://www.youtube.com/channel/UC%d", i)
	}
	if _, err := e.Generate(context.Background(), five, 4); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("five: got %v", err)
	}
}

func TestGenerateDefaultsVideosPerChannel(t *testing.T) {
	// WHAT: A zero max_videos_per_channel falls back to 4 videos, not 1.
	// WHY: Callers that omit the knob expect a useful multi-video synthesis;
	// silently collapsing to a single video starves the battlecard of data.
	yt := &fakeYT{
		channels:    make(map[string][]youtube.Video),
		transcripts: map[string][]youtube.TranscriptChunk{},
		failing:     make(map[string]bool),
	}
	url := "https://www.youtube.com/channel/UC1"
	for i := 1; i <= 6; i++ {
		vid := fmt.Sprintf("vid%d", i)
		yt.channels[url] = append(yt.channels[url], youtube.Video{ID: vid, Title: fmt.Sprintf("Video %d", i)})
		yt.transcripts[vid] = []youtube.TranscriptChunk{{Start: 0, Text: "snippet " + vid}}
	}
	e := New(yt, &fakeLLM{analysis: &videoAnalysis{Summary: "s", Confidence: "high"}}, Config{}, nil)

	rep, err := e.Generate(context.Background(), []string{url}, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := len(rep.Battlecard.VideoSummaries); got != 4 {
		t.Errorf("videos analyzed = %d, want the default of 4", got)
	}
}

func TestGenerateDedupKeepsHigherConfidence(t *testing.T) {
	// WHAT: Identical (item, video_url) findings with low and high
	// confidence collapse to one entry with confidence high.
	// WHY: Duplicate findings across analysis passes must not inflate cards.
	yt := chan4()
	a := &videoAnalysis{
		Summary:    "s",
		Confidence: "medium",
		NewFeatures: []analysisItem{
			{Item: "New  Editor launched", Confidence: "low"},
			{Item: "new editor LAUNCHED", Confidence: "high"},
		},
	}
	e := New(yt, &fakeLLM{analysis: a}, Config{}, nil)

	rep, err := e.Generate(context.Background(), []string{"https://www.youtube.com/channel/UC1"}, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(rep.Battlecard.NewFeatures) != 1 {
		t.Fatalf("new_features: got %d entries", len(rep.Battlecard.NewFeatures))
	}
	if got := rep.Battlecard.NewFeatures[0].Confidence; got != ConfidenceHigh {
		t.Errorf("confidence: got %q, want high", got)
	}
}

func TestGenerateDegradesOnFailingChannel(t *testing.T) {
	// WHAT: With 4 channels and 1 failing fetch, the result carries the
	// other 3 plus a note for the failed one, and the call succeeds.
	// WHY: Partial upstream failure must not abort the battlecard.
	urls := []string{
		"https://www.youtube.com/channel/UC1",
		"https://www.youtube.com/channel/UC2",
		"https://www.youtube.com/channel/UC3",
		"https://www.youtube.com/channel/UC4",
	}
	yt := chan4(urls[1])
	e := New(yt, &fakeLLM{analysis: &videoAnalysis{Summary: "s", Confidence: "medium"}}, Config{}, nil)

	rep, err := e.Generate(context.Background(), urls, 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(rep.Battlecard.Channels) != 4 {
		t.Fatalf("channels: got %d", len(rep.Battlecard.Channels))
	}
	if !strings.Contains(rep.Battlecard.Channels[1].Notes, "fetch failed") {
		t.Errorf("failed channel note: %q", rep.Battlecard.Channels[1].Notes)
	}
	if len(rep.Battlecard.VideoSummaries) != 3 {
		t.Errorf("video summaries: got %d, want 3", len(rep.Battlecard.VideoSummaries))
	}
}

func TestGenerateAllChannelsFail(t *testing.T) {
	// WHAT: Zero channels yielding data is an error.
	// WHY: A battlecard with no inputs at all is not a usable result.
	urls := []string{"https://www.youtube.com/channel/UC1", "https://www.youtube.com/channel/UC2"}
	yt := chan4(urls...)
	e := New(yt, &fakeLLM{analysis: &videoAnalysis{}}, Config{}, nil)

	if _, err := e.Generate(context.Background(), urls, 2); !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}

func TestGenerateSentimentSentinel(t *testing.T) {
	// WHAT: Without any above-low sentiment signal the unknown sentinel is
	// emitted; with one, the signal wins.
	// WHY: The engine owns the sentinel, not the display layer.
	yt := chan4()
	low := &fakeLLM{analysis: &videoAnalysis{
		Summary:   "s",
		Sentiment: &sentimentValue{Status: "positive", Summary: "weak", Confidence: "low"},
	}}
	e := New(yt, low, Config{}, nil)
	rep, err := e.Generate(context.Background(), []string{"https://www.youtube.com/channel/UC1"}, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.Battlecard.SentimentShift.Status != "unknown" {
		t.Errorf("sentinel: got %q", rep.Battlecard.SentimentShift.Status)
	}

	strong := &fakeLLM{analysis: &videoAnalysis{
		Summary:   "s",
		Sentiment: &sentimentValue{Status: "positive", Summary: "upbeat launches", Confidence: "high"},
	}}
	e = New(yt, strong, Config{}, nil)
	rep, err = e.Generate(context.Background(), []string{"https://www.youtube.com/channel/UC1"}, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.Battlecard.SentimentShift.Status != "positive" || rep.Battlecard.SentimentShift.Confidence != ConfidenceHigh {
		t.Errorf("sentiment: %+v", rep.Battlecard.SentimentShift)
	}
}

func TestGenerateKeywordFallbackOnLLMFailure(t *testing.T) {
	// WHAT: When the LLM call fails, findings come from title keywords at
	// low confidence and the call still succeeds.
	// WHY: A broken completions backend degrades, it does not fail jobs.
	yt := chan4()
	yt.channels["https://www.youtube.com/channel/UC1"] = []youtube.Video{
		{ID: "vid1", Title: "Huge pricing update for our new plan"},
	}
	e := New(yt, &fakeLLM{err: errors.New("llm down")}, Config{}, nil)

	rep, err := e.Generate(context.Background(), []string{"https://www.youtube.com/channel/UC1"}, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(rep.Battlecard.PricingChanges) != 1 {
		t.Fatalf("pricing_changes: got %d", len(rep.Battlecard.PricingChanges))
	}
	if rep.Battlecard.PricingChanges[0].Confidence != ConfidenceLow {
		t.Errorf("confidence: got %q", rep.Battlecard.PricingChanges[0].Confidence)
	}
}

func TestGenerateEvidenceAttached(t *testing.T) {
	// WHAT: Evidence entries carry the finding's video and channel URL.
	// WHY: Every finding must be traceable back to its source video.
	yt := chan4()
	a := &videoAnalysis{
		Summary:     "s",
		NewFeatures: []analysisItem{{Item: "Editor", Confidence: "medium"}},
	}
	e := New(yt, &fakeLLM{analysis: a}, Config{}, nil)

	rep, err := e.Generate(context.Background(), []string{"https://www.youtube.com/channel/UC1"}, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(rep.Evidence) == 0 {
		t.Fatal("no evidence")
	}
	ev := rep.Evidence[0]
	if ev.VideoURL != youtube.WatchURLAt("vid1", 0) || ev.ChannelURL == "" || ev.Text == "" {
		t.Errorf("evidence: %+v", ev)
	}
	// The finding keeps the canonical watch URL; the evidence deep-links
	// into the same video.
	f := rep.Battlecard.NewFeatures[0]
	if f.VideoURL != youtube.WatchURL("vid1") || !strings.HasPrefix(ev.VideoURL, f.VideoURL) {
		t.Errorf("finding not linked to evidence: %+v vs %+v", f, ev)
	}
}

func TestNormalizeConfidence(t *testing.T) {
	// WHAT: Unknown or missing labels default to low.
	// WHY: The default is an engine decision, made explicit here.
	cases := map[string]Confidence{
		"HIGH": ConfidenceHigh, " medium ": ConfidenceMedium,
		"low": ConfidenceLow, "": ConfidenceLow, "certain": ConfidenceLow,
	}
	for in, want := range cases {
		if got := NormalizeConfidence(in); got != want {
			t.Errorf("%q: got %q, want %q", in, got, want)
		}
	}
}
