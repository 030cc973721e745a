// Entry point for the coursecast HTTP service — chi router, async course jobs,
// battlecard synthesis, AI-product catalog, MCP optional.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hazyhaar/coursecast/battlecard"
	"github.com/hazyhaar/coursecast/config"
	"github.com/hazyhaar/coursecast/coursejob"
	"github.com/hazyhaar/coursecast/dbopen"
	"github.com/hazyhaar/coursecast/export"
	"github.com/hazyhaar/coursecast/llm"
	"github.com/hazyhaar/coursecast/products"
	"github.com/hazyhaar/coursecast/shield"
	"github.com/hazyhaar/coursecast/youtube"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"
)

func main() {
	cfg, err := config.Load(env("COURSECAST_CONFIG", ""))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	mcpTransport := env("MCP_TRANSPORT", "")

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Service DB — course results and the product catalog share one file.
	db, err := dbopen.Open(filepath.Join(cfg.DataDir, "coursecast.db"), dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	courseStore, err := coursejob.NewStore(db)
	if err != nil {
		slog.Error("course store", "error", err)
		os.Exit(1)
	}
	productStore, err := products.NewStore(db)
	if err != nil {
		slog.Error("product store", "error", err)
		os.Exit(1)
	}

	// External collaborators.
	yt := youtube.New(youtube.Config{
		Endpoint: cfg.YouTube.Endpoint,
		Timeout:  time.Duration(cfg.YouTube.TimeoutSeconds) * time.Second,
	})
	completions := llm.New(llm.Config{
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Retries:  cfg.LLM.Retries,
	})

	// Course pipeline.
	builder := coursejob.NewBuilder(yt, completions, coursejob.BuilderConfig{
		MaxVideos:             cfg.Course.MaxVideos,
		TimeBudget:            time.Duration(cfg.Course.TimeBudgetSeconds) * time.Second,
		TranscriptTimeout:     time.Duration(cfg.Course.TranscriptTimeoutSeconds) * time.Second,
		TranscriptRetries:     cfg.Course.TranscriptRetries,
		MaxNoTranscriptChecks: cfg.Course.MaxNoTranscriptChecks,
		AllowTitleOnly:        cfg.Course.AllowTitleOnly,
	}, logger)
	jobs := coursejob.NewCoordinator(builder,
		coursejob.WithLogger(logger),
		coursejob.WithStore(courseStore),
	)

	// Battlecard synthesis.
	cards := battlecard.New(yt, completions, battlecard.Config{
		MaxChannels:         cfg.Battlecard.MaxChannels,
		MaxVideosPerChannel: cfg.Battlecard.MaxVideosPerChannel,
		MaxSnippetsPerVideo: cfg.Battlecard.MaxSnippetsPerVideo,
	}, logger)

	// Product catalog (seeds itself on first run).
	sources := make([]products.Source, 0, len(cfg.Products.Sources))
	for _, s := range cfg.Products.Sources {
		sources = append(sources, products.Source{Name: s.Name, URL: s.URL, Kind: s.Kind})
	}
	catalog, err := products.New(ctx, productStore, products.Config{
		FeedURL:       cfg.Products.FeedURL,
		ListURL:       cfg.Products.ListURL,
		Sources:       sources,
		RefreshMaxAge: time.Duration(cfg.Products.RefreshMaxAgeHours) * time.Hour,
	}, products.WithLogger(logger))
	if err != nil {
		slog.Error("products service", "error", err)
		os.Exit(1)
	}

	// Optional MCP over stdio.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "coursecast",
			Version: "1.0.0",
		}, nil)
		jobs.RegisterMCP(mcpSrv)
		cards.RegisterMCP(mcpSrv)
		catalog.RegisterMCP(mcpSrv)

		go func() {
			slog.Info("MCP stdio starting")
			if sErr := mcpSrv.Run(ctx, &mcp.StdioTransport{}); sErr != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", sErr)
			}
		}()
	}

	// Router.
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range shield.DefaultAPIStack() {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Course generation.
	r.Post("/course", func(w http.ResponseWriter, r *http.Request) {
		jobID, err := jobs.Submit(r.Context(), r.URL.Query().Get("playlist_url"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
	})

	r.Get("/course/{jobID}", func(w http.ResponseWriter, r *http.Request) {
		job, err := jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, job)
	})

	r.Get("/course/{jobID}/export/{format}", func(w http.ResponseWriter, r *http.Request) {
		format := export.Format(chi.URLParam(r, "format"))
		if format != export.FormatPDF && format != export.FormatPPTX {
			writeError(w, 400, fmt.Errorf("%w: %s", export.ErrUnsupportedFormat, format))
			return
		}
		course, err := jobs.Result(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		blob, err := export.Build(course, format)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(course, format)))
		w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
		w.WriteHeader(200)
		w.Write(blob)
	})

	// Battlecard synthesis.
	r.Post("/weekly-battlecard", func(w http.ResponseWriter, r *http.Request) {
		channels := r.URL.Query()["channels"]
		maxVideos := queryInt(r, "max_videos_per_channel", 0)
		report, err := cards.Generate(r.Context(), channels, maxVideos)
		if err != nil {
			shield.GetLogger(r.Context()).Warn("battlecard generation failed", "error", err)
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, report)
	})

	// AI product catalog.
	r.Get("/ai-products", func(w http.ResponseWriter, r *http.Request) {
		page, err := catalog.Query(r.Context(), products.QueryOptions{
			Offset:  queryInt(r, "offset", 0),
			Limit:   queryInt(r, "limit", 0),
			Q:       r.URL.Query().Get("q"),
			Refresh: r.URL.Query().Get("refresh") == "true",
		})
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, page)
	})

	syncHandler := func(sourceID string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if err := catalog.Sync(r.Context(), sourceID); err != nil {
				shield.GetLogger(r.Context()).Warn("catalog sync failed", "source", sourceID, "error", err)
				writeError(w, statusFor(err), err)
				return
			}
			page, err := catalog.Query(r.Context(), products.QueryOptions{
				Offset: queryInt(r, "offset", 0),
				Limit:  queryInt(r, "limit", 0),
				Q:      r.URL.Query().Get("q"),
			})
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, page)
		}
	}
	r.Post("/ai-products/sync", syncHandler("feed"))
	r.Post("/ai-products/sync-zapier", syncHandler("zapier"))
	r.Post("/ai-products/sync-sources", syncHandler("sources"))

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, coursejob.ErrInvalidInput),
		errors.Is(err, battlecard.ErrInvalidInput),
		errors.Is(err, products.ErrUnknownSource),
		errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, coursejob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, coursejob.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, battlecard.ErrNoData),
		errors.Is(err, products.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
