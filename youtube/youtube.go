// Package youtube is the transcript/metadata extraction collaborator.
//
// Playlist listing, channel listing, and transcript extraction run in an
// external extractor service; this package defines the data crossing that
// boundary and an HTTP client for it. How the extractor obtains transcripts
// is not coursecast's concern.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/coursecast/safeurl"
)

// ErrNoTranscript is returned when a video has no usable transcript.
var ErrNoTranscript = errors.New("youtube: no transcript available")

// Video is one playlist or channel entry.
type Video struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Published       string `json:"published"`
	DurationSeconds int    `json:"duration_seconds"`
}

// TranscriptChunk is one timestamped transcript segment.
type TranscriptChunk struct {
	Start float64 `json:"start"`
	Text  string  `json:"text"`
}

// Channel is a resolved channel identity.
type Channel struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Client is the extraction collaborator contract.
type Client interface {
	// PlaylistVideos lists up to limit videos of a playlist, in playlist order.
	PlaylistVideos(ctx context.Context, playlistURL string, limit int) ([]Video, error)
	// ChannelVideos resolves a channel URL and lists up to limit recent
	// videos, most recent first.
	ChannelVideos(ctx context.Context, channelURL string, limit int) (Channel, []Video, error)
	// Transcript returns the timestamped transcript of a video, or
	// ErrNoTranscript.
	Transcript(ctx context.Context, videoID string) ([]TranscriptChunk, error)
}

// WatchURL builds the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://youtube.com/watch?v=" + videoID
}

// WatchURLAt builds a watch URL with a start offset in seconds.
func WatchURLAt(videoID string, start float64) string {
	return fmt.Sprintf("https://youtube.com/watch?v=%s&t=%d", videoID, int(start))
}

// Config configures the HTTP client.
type Config struct {
	Endpoint string        // extractor base URL
	Timeout  time.Duration // per call. Default: 25s.
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 25 * time.Second
	}
}

// HTTPClient implements Client against the extractor's JSON API.
type HTTPClient struct {
	endpoint string
	oembed   string
	client   *http.Client
}

// New creates an HTTPClient.
func New(cfg Config) *HTTPClient {
	cfg.defaults()
	return &HTTPClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		oembed:   "https://www.youtube.com/oembed",
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// PlaylistVideos implements Client.
func (c *HTTPClient) PlaylistVideos(ctx context.Context, playlistURL string, limit int) ([]Video, error) {
	if err := safeurl.Validate(playlistURL); err != nil {
		return nil, err
	}
	var out struct {
		Videos []Video `json:"videos"`
	}
	q := url.Values{"url": {playlistURL}, "limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/playlist", q, &out); err != nil {
		return nil, err
	}
	return out.Videos, nil
}

// ChannelVideos implements Client.
func (c *HTTPClient) ChannelVideos(ctx context.Context, channelURL string, limit int) (Channel, []Video, error) {
	if err := safeurl.Validate(channelURL); err != nil {
		return Channel{}, nil, err
	}
	// A watch URL passed as a channel is normalized to its author's channel
	// via public oEmbed metadata before the extractor is asked for videos.
	if strings.Contains(channelURL, "watch?v=") {
		if meta, err := c.VideoOEmbed(ctx, channelURL); err == nil && meta.AuthorURL != "" {
			channelURL = meta.AuthorURL
		}
	}
	var out struct {
		Channel Channel `json:"channel"`
		Videos  []Video `json:"videos"`
	}
	q := url.Values{"url": {channelURL}, "limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/channel", q, &out); err != nil {
		return Channel{}, nil, err
	}
	return out.Channel, out.Videos, nil
}

// Transcript implements Client.
func (c *HTTPClient) Transcript(ctx context.Context, videoID string) ([]TranscriptChunk, error) {
	var out struct {
		Chunks []TranscriptChunk `json:"chunks"`
	}
	q := url.Values{"video_id": {videoID}}
	err := c.getJSON(ctx, "/transcript", q, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Chunks) == 0 {
		return nil, ErrNoTranscript
	}
	return out.Chunks, nil
}

// OEmbed holds the public oEmbed metadata of a video.
type OEmbed struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
	AuthorURL  string `json:"author_url"`
}

// VideoOEmbed fetches public oEmbed metadata for a watch URL.
func (c *HTTPClient) VideoOEmbed(ctx context.Context, watchURL string) (OEmbed, error) {
	q := url.Values{"url": {watchURL}, "format": {"json"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.oembed+"?"+q.Encode(), nil)
	if err != nil {
		return OEmbed{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return OEmbed{}, fmt.Errorf("youtube: oembed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return OEmbed{}, fmt.Errorf("youtube: oembed HTTP %d", resp.StatusCode)
	}
	body, err := safeurl.LimitedReadAll(resp.Body, safeurl.MaxResponseBody)
	if err != nil {
		return OEmbed{}, err
	}
	var out OEmbed
	if err := json.Unmarshal(body, &out); err != nil {
		return OEmbed{}, fmt.Errorf("youtube: decode oembed: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	u := c.endpoint + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("youtube: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoTranscript
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube: HTTP %d from %s", resp.StatusCode, path)
	}

	body, err := safeurl.LimitedReadAll(resp.Body, safeurl.MaxResponseBody)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("youtube: decode %s: %w", path, err)
	}
	return nil
}
