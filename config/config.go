// Package config loads coursecast configuration from an optional YAML file
// with environment-variable overrides for deployment-level settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`

	YouTube    YouTube    `yaml:"youtube"`
	LLM        LLM        `yaml:"llm"`
	Course     Course     `yaml:"course"`
	Battlecard Battlecard `yaml:"battlecard"`
	Products   Products   `yaml:"products"`
}

// YouTube configures the transcript/metadata extraction collaborator.
type YouTube struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LLM configures the chat-completions collaborator.
type LLM struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Retries        int    `yaml:"retries"`
}

// Course bounds the course-generation pipeline.
type Course struct {
	MaxVideos                int  `yaml:"max_videos"`
	TimeBudgetSeconds        int  `yaml:"time_budget_seconds"`
	TranscriptTimeoutSeconds int  `yaml:"transcript_timeout_seconds"`
	TranscriptRetries        int  `yaml:"transcript_retries"`
	MaxNoTranscriptChecks    int  `yaml:"max_no_transcript_checks"`
	AllowTitleOnly           bool `yaml:"allow_title_only"`
}

// Battlecard bounds the synthesis engine.
type Battlecard struct {
	MaxChannels         int `yaml:"max_channels"`
	MaxVideosPerChannel int `yaml:"max_videos_per_channel"`
	MaxSnippetsPerVideo int `yaml:"max_snippets_per_video"`
}

// SourceDef names one external product source for the multi-source sweep.
type SourceDef struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"` // "directory" or "list"
}

// Products configures catalog sync sources.
type Products struct {
	FeedURL            string      `yaml:"feed_url"`
	ListURL            string      `yaml:"list_url"`
	Sources            []SourceDef `yaml:"sources"`
	RefreshMaxAgeHours int         `yaml:"refresh_max_age_hours"`
}

func (c *Config) defaults() {
	if c.Port == "" {
		c.Port = "8086"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.YouTube.TimeoutSeconds <= 0 {
		c.YouTube.TimeoutSeconds = 25
	}
	if c.LLM.Endpoint == "" {
		c.LLM.Endpoint = "https://api.openai.com"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.Retries < 0 {
		c.LLM.Retries = 0
	}
	if c.Course.MaxVideos <= 0 {
		c.Course.MaxVideos = 20
	}
	if c.Course.TimeBudgetSeconds <= 0 {
		c.Course.TimeBudgetSeconds = 90
	}
	if c.Course.TranscriptTimeoutSeconds <= 0 {
		c.Course.TranscriptTimeoutSeconds = 4
	}
	if c.Course.TranscriptRetries < 0 {
		c.Course.TranscriptRetries = 0
	}
	if c.Course.MaxNoTranscriptChecks <= 0 {
		c.Course.MaxNoTranscriptChecks = 16
	}
	if c.Battlecard.MaxChannels <= 0 {
		c.Battlecard.MaxChannels = 4
	}
	if c.Battlecard.MaxVideosPerChannel <= 0 {
		c.Battlecard.MaxVideosPerChannel = 10
	}
	if c.Battlecard.MaxSnippetsPerVideo <= 0 {
		c.Battlecard.MaxSnippetsPerVideo = 6
	}
	if c.Products.FeedURL == "" {
		c.Products.FeedURL = "https://www.producthunt.com/feed"
	}
	if c.Products.ListURL == "" {
		c.Products.ListURL = "https://zapier.com/blog/best-ai-productivity-tools/"
	}
	if c.Products.RefreshMaxAgeHours <= 0 {
		c.Products.RefreshMaxAgeHours = 24
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides, then fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// Deployment-level overrides.
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("YOUTUBE_ENDPOINT"); v != "" {
		cfg.YouTube.Endpoint = v
	}
	if v := os.Getenv("LLM_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	cfg.defaults()
	return cfg, nil
}
