package battlecard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/coursecast/llm"
	"github.com/hazyhaar/coursecast/youtube"
)

// ErrInvalidInput is returned for an empty or oversized channel list.
var ErrInvalidInput = errors.New("battlecard: invalid input")

// defaultVideosPerChannel applies when the caller omits a per-channel video
// count.
const defaultVideosPerChannel = 4

// ErrNoData is returned when no channel yields any data at all.
var ErrNoData = errors.New("battlecard: no channel yielded any data")

// Config bounds a synthesis run.
type Config struct {
	MaxChannels         int // hard cap on channel URLs per request. Default: 4.
	MaxVideosPerChannel int // ceiling on the per-request video count. Default: 10.
	MaxSnippetsPerVideo int // evidence snippets kept per video. Default: 6.
}

func (c *Config) defaults() {
	if c.MaxChannels <= 0 {
		c.MaxChannels = 4
	}
	if c.MaxVideosPerChannel <= 0 {
		c.MaxVideosPerChannel = 10
	}
	if c.MaxSnippetsPerVideo <= 0 {
		c.MaxSnippetsPerVideo = 6
	}
}

// Engine is the battlecard synthesis engine.
type Engine struct {
	yt     youtube.Client
	llm    llm.Client
	logger *slog.Logger
	config Config
	now    func() time.Time
}

// New creates an Engine.
func New(yt youtube.Client, completions llm.Client, cfg Config, logger *slog.Logger) *Engine {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		yt:     yt,
		llm:    completions,
		logger: logger,
		config: cfg,
		now:    time.Now,
	}
}

// channelResult is the per-channel partial output. Goroutines fill their own
// result slot; nothing is shared until all workers join.
type channelResult struct {
	channelURL string
	note       string
	failed     bool
	titleOnly  bool

	summaries []VideoSummary
	features  []Finding
	pricing   []Finding
	messaging []Finding
	concepts  []string
	sentiment []SentimentShift
	evidence  []rawEvidence
}

// rawEvidence is a snippet before the store assigns its deep link.
type rawEvidence struct {
	videoID    string
	channelURL string
	text       string
	start      float64
}

// Generate fans out over the channels, merges per-video analyses into one
// deduplicated battlecard, and returns it with the evidence used. A failing
// channel degrades to a note; only a total failure is an error.
func (e *Engine) Generate(ctx context.Context, channelURLs []string, maxVideos int) (*Report, error) {
	if len(channelURLs) == 0 || len(channelURLs) > e.config.MaxChannels {
		return nil, fmt.Errorf("%w: between 1 and %d channel URLs required", ErrInvalidInput, e.config.MaxChannels)
	}
	if maxVideos < 1 {
		maxVideos = defaultVideosPerChannel
	}
	if maxVideos > e.config.MaxVideosPerChannel {
		maxVideos = e.config.MaxVideosPerChannel
	}

	results := make([]channelResult, len(channelURLs))
	var wg sync.WaitGroup
	for i, u := range channelURLs {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = e.processChannel(ctx, u, maxVideos)
		}(i, u)
	}
	wg.Wait()

	// Assemble in submission order so dedup tie-breaks are reproducible.
	evidence := NewEvidenceStore()
	card := Battlecard{}
	var sentiments []SentimentShift
	var okChannels, videoCount int
	var anyTitleOnly bool

	for _, r := range results {
		card.Channels = append(card.Channels, ChannelNote{ChannelURL: r.channelURL, Notes: r.note})
		if r.failed {
			continue
		}
		okChannels++
		videoCount += len(r.summaries)
		anyTitleOnly = anyTitleOnly || r.titleOnly

		card.VideoSummaries = append(card.VideoSummaries, r.summaries...)
		card.NewFeatures = append(card.NewFeatures, r.features...)
		card.PricingChanges = append(card.PricingChanges, r.pricing...)
		card.MessagingShifts = append(card.MessagingShifts, r.messaging...)
		card.Concepts = append(card.Concepts, r.concepts...)
		sentiments = append(sentiments, r.sentiment...)
		for _, ev := range r.evidence {
			evidence.Add(ev.videoID, ev.channelURL, ev.text, ev.start)
		}
	}

	if okChannels == 0 {
		return nil, ErrNoData
	}

	card.VideoSummaries = dedupeSummaries(card.VideoSummaries)
	card.NewFeatures = evidence.enrich(dedupeFindings(card.NewFeatures))
	card.PricingChanges = evidence.enrich(dedupeFindings(card.PricingChanges))
	card.MessagingShifts = evidence.enrich(dedupeFindings(card.MessagingShifts))
	card.Concepts = dedupeStrings(card.Concepts, 8)
	card.SentimentShift = pickSentiment(sentiments)

	total := len(card.NewFeatures) + len(card.PricingChanges) + len(card.MessagingShifts)
	card.Summary = fmt.Sprintf("%d findings across %d channels (%d videos analyzed).", total, okChannels, videoCount)
	if anyTitleOnly {
		card.Summary += " Some findings derive from titles/descriptions only due to missing transcripts."
	}

	return &Report{
		GeneratedAt: e.now().UTC().Format(time.RFC3339),
		Battlecard:  card,
		Evidence:    evidence.Items(),
	}, nil
}

// processChannel fetches one channel's recent videos and analyzes each in
// recency order. Per-video failures degrade to a title-only classification;
// a channel fetch failure marks the whole channel as failed.
func (e *Engine) processChannel(ctx context.Context, channelURL string, maxVideos int) channelResult {
	log := e.logger.With("channel_url", channelURL)
	r := channelResult{channelURL: channelURL}

	ch, videos, err := e.yt.ChannelVideos(ctx, channelURL, maxVideos)
	if err != nil {
		log.Warn("battlecard: channel fetch failed", "error", err)
		r.failed = true
		r.note = "fetch failed: " + err.Error()
		return r
	}
	if ch.URL != "" {
		r.channelURL = ch.URL
	}
	if len(videos) == 0 {
		r.failed = true
		r.note = "no recent videos found"
		return r
	}

	for _, v := range videos {
		videoURL := youtube.WatchURL(v.ID)

		var snippets []string
		chunks, err := e.yt.Transcript(ctx, v.ID)
		if err != nil && !errors.Is(err, youtube.ErrNoTranscript) {
			log.Warn("battlecard: transcript fetch failed", "video_id", v.ID, "error", err)
		}
		for _, c := range chunks {
			if len(snippets) >= e.config.MaxSnippetsPerVideo {
				break
			}
			snippets = append(snippets, c.Text)
			r.evidence = append(r.evidence, rawEvidence{
				videoID:    v.ID,
				channelURL: r.channelURL,
				text:       c.Text,
				start:      c.Start,
			})
		}
		if len(snippets) == 0 {
			r.titleOnly = true
		}

		analysis, err := e.analyzeVideo(ctx, v, snippets)
		if err != nil {
			log.Warn("battlecard: analysis failed, using keyword fallback", "video_id", v.ID, "error", err)
			analysis = classifyByKeywords(v)
		}

		r.summaries = append(r.summaries, VideoSummary{
			VideoURL:   videoURL,
			Title:      v.Title,
			Summary:    analysis.Summary,
			Confidence: NormalizeConfidence(analysis.Confidence),
		})
		r.features = append(r.features, toFindings(analysis.NewFeatures, r.channelURL, videoURL)...)
		r.pricing = append(r.pricing, toFindings(analysis.PricingChanges, r.channelURL, videoURL)...)
		r.messaging = append(r.messaging, toFindings(analysis.MessagingShifts, r.channelURL, videoURL)...)
		r.concepts = append(r.concepts, analysis.Concepts...)
		if s := analysis.Sentiment; s != nil && s.Status != "" {
			r.sentiment = append(r.sentiment, SentimentShift{
				Status:     s.Status,
				Summary:    s.Summary,
				Confidence: NormalizeConfidence(s.Confidence),
			})
		}
	}

	r.note = fmt.Sprintf("%d recent videos scanned.", len(videos))
	return r
}

func toFindings(items []analysisItem, channelURL, videoURL string) []Finding {
	out := make([]Finding, 0, len(items))
	for _, it := range items {
		if it.Item == "" {
			continue
		}
		out = append(out, Finding{
			Item:       it.Item,
			ChannelURL: channelURL,
			VideoURL:   videoURL,
			Confidence: NormalizeConfidence(it.Confidence),
		})
	}
	return out
}

// pickSentiment keeps the highest-confidence signal above low, first
// encountered winning ties. With no qualifying signal the unknown sentinel
// is emitted.
func pickSentiment(signals []SentimentShift) SentimentShift {
	best := unknownSentiment()
	bestRank := 0
	for _, s := range signals {
		if rank := confidenceRank(s.Confidence); rank > bestRank {
			best = s
			bestRank = rank
		}
	}
	return best
}
