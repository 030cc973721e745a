package coursejob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/coursecast/idgen"
	"github.com/hazyhaar/coursecast/llm"
	"github.com/hazyhaar/coursecast/youtube"
)

// Stage progress weights for the polling contract. Intermediate per-video
// updates interpolate between them; progress never decreases.
const (
	progressPlaylist   = 10
	progressTranscript = 40
	progressStructure  = 80
	progressDone       = 100
)

// Prompt size caps, in characters of transcript text.
const (
	maxSummaryInput = 12000
	maxStudyInput   = 22000
	maxQuizInput    = 10000
	maxQuizChunks   = 120
)

// BuilderConfig bounds the external work a single pipeline run may do.
type BuilderConfig struct {
	// MaxVideos caps how many playlist entries are processed.
	MaxVideos int
	// TimeBudget bounds the transcript-fetching stage as a whole; when
	// exceeded, the pipeline continues with the transcripts it has.
	TimeBudget time.Duration
	// TranscriptTimeout bounds each transcript fetch attempt.
	TranscriptTimeout time.Duration
	// TranscriptRetries is the number of extra attempts per video.
	TranscriptRetries int
	// MaxNoTranscriptChecks aborts the stage early when this many videos
	// in a row yielded no transcript and no summary exists yet.
	MaxNoTranscriptChecks int
	// AllowTitleOnly falls back to a title-derived syllabus when no
	// transcript in the playlist is usable.
	AllowTitleOnly bool
}

func (c *BuilderConfig) defaults() {
	if c.MaxVideos <= 0 {
		c.MaxVideos = 25
	}
	if c.TimeBudget <= 0 {
		c.TimeBudget = 90 * time.Second
	}
	if c.TranscriptTimeout <= 0 {
		c.TranscriptTimeout = 4 * time.Second
	}
	if c.MaxNoTranscriptChecks <= 0 {
		c.MaxNoTranscriptChecks = 4
	}
}

// Builder runs the course-generation stages: playlist fetch, per-video
// transcript and summary, syllabus structuring, study material, quizzes.
type Builder struct {
	yt     youtube.Client
	llm    llm.Client
	logger *slog.Logger
	config BuilderConfig
	newID  idgen.Generator
	now    func() time.Time
}

// NewBuilder creates a Builder over the extraction and LLM collaborators.
func NewBuilder(yt youtube.Client, llmClient llm.Client, cfg BuilderConfig, logger *slog.Logger) *Builder {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		yt:     yt,
		llm:    llmClient,
		logger: logger,
		config: cfg,
		newID:  idgen.Default,
		now:    time.Now,
	}
}

type videoSummary struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	VideoURL string `json:"video_url"`
}

// Build executes the pipeline. progress receives absolute percentages with
// a stage message; logf records job log lines. Both may be nil.
func (b *Builder) Build(ctx context.Context, playlistURL string, progress func(int, string), logf func(string, ...any)) (*Course, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	videos, err := b.yt.PlaylistVideos(ctx, playlistURL, b.config.MaxVideos)
	if err != nil {
		return nil, fmt.Errorf("coursejob: fetch playlist: %w", err)
	}
	if len(videos) == 0 {
		return nil, errors.New("coursejob: playlist is empty or could not be fetched")
	}
	progress(progressPlaylist, fmt.Sprintf("Fetched playlist (%d videos)", len(videos)))
	logf("playlist loaded videos=%d", len(videos))

	summaries, chunksByVideo := b.summarizeVideos(ctx, videos, progress, logf)

	if len(summaries) == 0 {
		if !b.config.AllowTitleOnly {
			return nil, errors.New("coursejob: no usable transcripts found in the playlist")
		}
		logf("falling back to title-only summaries")
		for _, v := range videos {
			summaries = append(summaries, videoSummary{
				VideoID:  v.ID,
				Title:    v.Title,
				VideoURL: youtube.WatchURL(v.ID),
			})
		}
	}
	progress(progressTranscript, fmt.Sprintf("Summarized %d videos", len(summaries)))

	progress(progressTranscript+10, "Generating syllabus")
	syl := b.generateSyllabus(ctx, playlistURL, summaries, logf)

	progress(progressTranscript+20, "Building study materials")
	if err := b.buildStudyMaterial(ctx, syl, summaries, chunksByVideo, logf); err != nil {
		return nil, err
	}

	progress(progressStructure, "Generating module quizzes")
	b.generateQuizzes(ctx, syl, chunksByVideo, logf)

	course := b.assemble(playlistURL, syl, videos, summaries)
	progress(progressDone, "Done")
	return course, nil
}

// summarizeVideos fetches transcripts and produces a study summary per
// video. Missing transcripts are skipped; the stage stops early when the
// time budget runs out or too many videos in a row have no transcript.
func (b *Builder) summarizeVideos(ctx context.Context, videos []youtube.Video, progress func(int, string), logf func(string, ...any)) ([]videoSummary, map[string][]youtube.TranscriptChunk) {
	var summaries []videoSummary
	chunksByVideo := make(map[string][]youtube.TranscriptChunk)

	start := b.now()
	noTranscript := 0

	for idx, video := range videos {
		if b.now().Sub(start) > b.config.TimeBudget {
			progress(progressTranscript, "Time budget reached; continuing with available transcripts")
			logf("time budget reached after %d/%d videos", idx, len(videos))
			break
		}

		chunks := b.fetchTranscript(ctx, video.ID, logf)
		pct := progressPlaylist + (idx+1)*(progressTranscript-progressPlaylist)/len(videos)

		if len(chunks) == 0 {
			noTranscript++
			logf("no transcript video_id=%s", video.ID)
			progress(pct, fmt.Sprintf("Checked %d/%d videos", idx+1, len(videos)))
			if noTranscript >= b.config.MaxNoTranscriptChecks && len(summaries) == 0 {
				logf("too many missing transcripts; stopping early")
				break
			}
			continue
		}
		chunksByVideo[video.ID] = chunks

		summaries = append(summaries, videoSummary{
			VideoID:  video.ID,
			Title:    video.Title,
			Summary:  b.summarizeTranscript(ctx, video, chunks, logf),
			VideoURL: youtube.WatchURL(video.ID),
		})
		progress(pct, fmt.Sprintf("Summarized %d/%d videos", idx+1, len(videos)))
	}
	return summaries, chunksByVideo
}

func (b *Builder) fetchTranscript(ctx context.Context, videoID string, logf func(string, ...any)) []youtube.TranscriptChunk {
	for attempt := 0; attempt <= b.config.TranscriptRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, b.config.TranscriptTimeout)
		chunks, err := b.yt.Transcript(attemptCtx, videoID)
		cancel()
		if err == nil && len(chunks) > 0 {
			return chunks
		}
		if errors.Is(err, youtube.ErrNoTranscript) {
			return nil
		}
		if err != nil {
			logf("transcript error video_id=%s attempt=%d error=%v", videoID, attempt+1, err)
		}
	}
	return nil
}

const summarySystemPrompt = "Write a detailed study summary based strictly on the transcript. " +
	"Return 180-260 words plus 6-10 bullet points covering key ideas, definitions, " +
	"formulas, and practical tips. Use plain language and include 1-2 common " +
	"misconceptions if present. Stay faithful to the transcript."

func (b *Builder) summarizeTranscript(ctx context.Context, video youtube.Video, chunks []youtube.TranscriptChunk, logf func(string, ...any)) string {
	content, err := b.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Title: %s\nTranscript:\n%s",
				video.Title, truncate(joinChunks(chunks), maxSummaryInput))},
		},
	})
	if err != nil {
		// A missing summary degrades the lesson, not the course.
		logf("summary error video_id=%s error=%v", video.ID, err)
		return ""
	}
	return strings.TrimSpace(content)
}

type syllabus struct {
	CourseTitle string   `json:"course_title"`
	Hook        string   `json:"hook"`
	Difficulty  string   `json:"difficulty"`
	Modules     []Module `json:"modules"`
}

const syllabusSystemPrompt = "You are an expert instructional designer. Create a 3-5 module " +
	"course from the provided video summaries. Use Bloom's Taxonomy verbs for " +
	"learning objectives. Keep JSON valid."

// generateSyllabus asks the LLM to structure the summaries into modules.
// Any failure falls back to a title-only syllabus so the job still completes.
func (b *Builder) generateSyllabus(ctx context.Context, playlistURL string, summaries []videoSummary, logf func(string, ...any)) *syllabus {
	payload, _ := json.Marshal(map[string]any{
		"playlist_url": playlistURL,
		"videos":       summaries,
		"required_format": map[string]any{
			"course_title": "string",
			"hook":         "string",
			"difficulty":   "beginner|intermediate|advanced|mixed",
			"modules": []map[string]any{{
				"title":      "string",
				"objectives": []string{"string"},
				"lessons": []map[string]any{{
					"video_id":            "string",
					"title":               "string",
					"summary":             "string",
					"learning_objectives": []string{"string"},
					"estimated_minutes":   0,
					"difficulty":          "beginner|intermediate|advanced",
				}},
			}},
		},
	})

	content, err := b.llm.Complete(ctx, llm.Request{
		JSONObject: true,
		Messages: []llm.Message{
			{Role: "system", Content: syllabusSystemPrompt},
			{Role: "user", Content: string(payload)},
		},
	})
	if err != nil {
		logf("syllabus error; using title-only syllabus error=%v", err)
		return titleOnlySyllabus(summaries)
	}
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		logf("syllabus returned no JSON; using title-only syllabus")
		return titleOnlySyllabus(summaries)
	}
	var syl syllabus
	if err := json.Unmarshal([]byte(raw), &syl); err != nil || len(syl.Modules) == 0 {
		logf("syllabus decode failed; using title-only syllabus")
		return titleOnlySyllabus(summaries)
	}
	return &syl
}

// titleOnlySyllabus spreads the videos round-robin over three modules.
func titleOnlySyllabus(summaries []videoSummary) *syllabus {
	modules := make([]Module, 3)
	for i := range modules {
		modules[i] = Module{Title: fmt.Sprintf("Module %d", i+1), Objectives: []string{}}
	}
	for idx, v := range summaries {
		m := &modules[idx%len(modules)]
		m.Lessons = append(m.Lessons, Lesson{
			VideoID:            v.VideoID,
			Title:              v.Title,
			Summary:            v.Summary,
			LearningObjectives: []string{},
			EstimatedMinutes:   5,
			Difficulty:         "mixed",
		})
	}
	return &syllabus{
		CourseTitle: "Course from Playlist",
		Hook:        "Structured learning path generated from playlist titles.",
		Difficulty:  "mixed",
		Modules:     modules,
	}
}

const studySystemPrompt = "Create textbook-style study material in Markdown based only on the " +
	"source text. Write 900-1400 words, clear headings, short paragraphs, and examples. " +
	"Structure:\n" +
	"# Lesson Overview\n" +
	"## Key Concepts\n" +
	"## Step-by-step Explanation\n" +
	"## Examples or Applications\n" +
	"## Common Pitfalls\n" +
	"## Quick Recap\n" +
	"## Practice Questions (3-5)\n" +
	"Make it feel like a concise book chapter. Do not invent facts beyond the source."

// buildStudyMaterial fills lesson markdown from transcript text, falling
// back to the video summary. It fails the job only when source text existed
// for at least one lesson and every generation attempt came back empty.
func (b *Builder) buildStudyMaterial(ctx context.Context, syl *syllabus, summaries []videoSummary, chunksByVideo map[string][]youtube.TranscriptChunk, logf func(string, ...any)) error {
	summaryByVideo := make(map[string]string, len(summaries))
	for _, s := range summaries {
		summaryByVideo[s.VideoID] = s.Summary
	}

	attempted, generated := 0, 0
	for mi := range syl.Modules {
		for li := range syl.Modules[mi].Lessons {
			lesson := &syl.Modules[mi].Lessons[li]
			if lesson.VideoID != "" {
				lesson.VideoURL = youtube.WatchURL(lesson.VideoID)
			}

			source := truncate(joinChunks(chunksByVideo[lesson.VideoID]), maxStudyInput)
			if source == "" {
				source = summaryByVideo[lesson.VideoID]
			}
			if source == "" {
				continue
			}
			attempted++

			content, err := b.llm.Complete(ctx, llm.Request{
				Messages: []llm.Message{
					{Role: "system", Content: studySystemPrompt},
					{Role: "user", Content: fmt.Sprintf("Lesson title: %s\nSource text:\n%s", lesson.Title, source)},
				},
			})
			if err != nil {
				logf("study material error video_id=%s error=%v", lesson.VideoID, err)
				continue
			}
			lesson.StudyMaterialMarkdown = strings.TrimSpace(content)
			if lesson.StudyMaterialMarkdown != "" {
				generated++
			}
		}
	}

	if attempted > 0 && generated == 0 {
		return errors.New("coursejob: no study material generated; transcripts may be missing")
	}
	return nil
}

const quizSystemPrompt = "Write 5-8 multiple-choice questions based only on the provided " +
	"transcript snippets. Each question must have 4 options, one correct answer_index, " +
	"and a short explanation. Return JSON with a top-level key 'quiz'."

// generateQuizzes produces one quiz per module from the transcripts of its
// lessons. Modules without transcript text get no quiz; invalid items
// (answer_index out of range, missing question or options) are dropped.
func (b *Builder) generateQuizzes(ctx context.Context, syl *syllabus, chunksByVideo map[string][]youtube.TranscriptChunk, logf func(string, ...any)) {
	for mi := range syl.Modules {
		module := &syl.Modules[mi]

		var chunks []youtube.TranscriptChunk
		for _, lesson := range module.Lessons {
			chunks = append(chunks, chunksByVideo[lesson.VideoID]...)
		}
		if len(chunks) == 0 {
			continue
		}
		if len(chunks) > maxQuizChunks {
			chunks = chunks[:maxQuizChunks]
		}

		var sb strings.Builder
		for _, c := range chunks {
			fmt.Fprintf(&sb, "[%s] %s\n", formatTimestamp(c.Start), c.Text)
		}

		content, err := b.llm.Complete(ctx, llm.Request{
			JSONObject: true,
			Messages: []llm.Message{
				{Role: "system", Content: quizSystemPrompt},
				{Role: "user", Content: truncate(sb.String(), maxQuizInput)},
			},
		})
		if err != nil {
			logf("quiz error module=%q error=%v", module.Title, err)
			continue
		}
		raw, err := llm.ExtractJSON(content)
		if err != nil {
			logf("quiz returned no JSON module=%q", module.Title)
			continue
		}
		var out struct {
			Quiz []QuizItem `json:"quiz"`
		}
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			logf("quiz decode failed module=%q", module.Title)
			continue
		}
		module.Quiz = validQuizItems(out.Quiz)
	}
}

func validQuizItems(items []QuizItem) []QuizItem {
	var out []QuizItem
	for _, q := range items {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 {
			continue
		}
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// assemble applies identifiers, totals, and the playlist-membership
// invariant: lessons referencing a video outside the playlist are dropped.
func (b *Builder) assemble(playlistURL string, syl *syllabus, videos []youtube.Video, summaries []videoSummary) *Course {
	inPlaylist := make(map[string]bool, len(videos))
	for _, v := range videos {
		inPlaylist[v.ID] = true
	}

	totalMinutes := 0
	modules := make([]Module, 0, len(syl.Modules))
	for _, module := range syl.Modules {
		kept := make([]Lesson, 0, len(module.Lessons))
		moduleMinutes := 0
		for _, lesson := range module.Lessons {
			if lesson.VideoID != "" && !inPlaylist[lesson.VideoID] {
				continue
			}
			moduleMinutes += lesson.EstimatedMinutes
			kept = append(kept, lesson)
		}
		if len(kept) == 0 {
			continue
		}
		module.Lessons = kept
		module.EstimatedMinutes = moduleMinutes
		totalMinutes += moduleMinutes
		modules = append(modules, module)
	}

	for mi := range modules {
		modules[mi].ModuleID = fmt.Sprintf("module-%d", mi+1)
		for li := range modules[mi].Lessons {
			modules[mi].Lessons[li].LessonID = fmt.Sprintf("lesson-%d-%d", mi+1, li+1)
		}
	}

	return &Course{
		CourseID:              b.newID(),
		CourseTitle:           syl.CourseTitle,
		Hook:                  syl.Hook,
		Difficulty:            firstNonEmpty(syl.Difficulty, "mixed"),
		EstimatedTotalMinutes: totalMinutes,
		Modules:               modules,
		Source: CourseSource{
			PlaylistURL: playlistURL,
			VideosCount: len(summaries),
		},
	}
}

func joinChunks(chunks []youtube.TranscriptChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "..."
}

func formatTimestamp(seconds float64) string {
	total := max(int(seconds), 0)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
