package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/fragment-loader/pkg/cache"
	"github.com/Sternrassler/fragment-loader/pkg/dom"
	"github.com/Sternrassler/fragment-loader/pkg/fetch"
	"github.com/Sternrassler/fragment-loader/pkg/loader"
	"github.com/Sternrassler/fragment-loader/pkg/logging"
	"github.com/Sternrassler/fragment-loader/pkg/metrics"
	"github.com/Sternrassler/fragment-loader/pkg/warmup"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fragment-server: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.LogLevel),
		Pretty:  cfg.LogPretty,
		Output:  os.Stderr,
		Service: "fragment-server",
	})
	logger := logging.NewLogger("fragment-server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	redisOpts, err := cfg.redisOptions()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid Redis configuration")
	}
	if redisOpts != nil {
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_addr", redisOpts.Addr).Msg("Failed to connect to Redis")
		}
		logger.Info().
			Str("redis_addr", redisOpts.Addr).
			Int("redis_db", redisOpts.DB).
			Msg("Connected to Redis")
	}

	srv, err := newServer(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create fragment server")
	}

	if paths := cfg.preloadPaths(); len(paths) > 0 {
		if _, err := srv.warmer.PreloadAll(ctx, paths); err != nil {
			logger.Warn().Err(err).Msg("Startup warmup incomplete")
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", httpServer.Addr).
		Str("origin", cfg.OriginURL).
		Str("layout", cfg.LayoutPath).
		Msg("Starting fragment server")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Fragment server stopped")
}

// server composes pages from fragments.
type server struct {
	loader   *loader.Loader
	warmer   *warmup.Warmer
	redis    *redis.Client
	layout   string
	slots    []slot
	minifier *minify.M
	logger   zerolog.Logger
}

// newServer wires the loader stack. redisClient may be nil, in which case
// fragments are cached in memory.
func newServer(cfg Config, redisClient *redis.Client, logger zerolog.Logger) (*server, error) {
	fetchCfg := fetch.DefaultConfig(cfg.OriginURL, cfg.UserAgent)
	fetchCfg.Timeout = cfg.FetchTimeout
	fetcher, err := fetch.New(fetchCfg)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	var store cache.Store = cache.NewMemoryStore()
	if redisClient != nil {
		store = cache.NewRedisStore(redisClient, cfg.CacheNamespace)
	}

	l, err := loader.New(loader.Config{Fetcher: fetcher, Store: store})
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}

	slots, err := cfg.slots()
	if err != nil {
		return nil, err
	}

	s := &server{
		loader: l,
		warmer: warmup.New(l, warmup.DefaultConfig()),
		redis:  redisClient,
		layout: cfg.LayoutPath,
		slots:  slots,
		logger: logger,
	}
	if cfg.Minify {
		s.minifier = minify.New()
		s.minifier.AddFunc("text/html", minhtml.Minify)
	}
	return s, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.pageHandler)
	mux.HandleFunc("POST /cache/clear", s.clearHandler)
	mux.HandleFunc("POST /cache/preload", s.preloadHandler)
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(s.redis))
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// pageHandler fetches the layout and fills every configured slot. Slots whose
// fragment or target is missing stay as they are in the layout.
func (s *server) pageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	layout, err := s.loader.Fragment(ctx, s.layout)
	if err != nil {
		http.Error(w, fmt.Sprintf("layout unavailable: %v", err), http.StatusBadGateway)
		return
	}

	doc, err := dom.ParseString(layout)
	if err != nil {
		http.Error(w, fmt.Sprintf("layout invalid: %v", err), http.StatusBadGateway)
		return
	}

	failed := 0
	for _, sl := range s.slots {
		if err := s.loader.Load(ctx, doc, sl.Path, sl.TargetID); err != nil {
			failed++
		}
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("render page: %v", err), http.StatusInternalServerError)
		return
	}

	body := buf.Bytes()
	if s.minifier != nil {
		if minified, err := s.minifier.Bytes("text/html", body); err == nil {
			body = minified
		} else {
			s.logger.Warn().Err(err).Msg("Minify failed, serving unminified page")
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Fragment-Failures", fmt.Sprintf("%d", failed))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write page")
	}
}

func (s *server) clearHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.loader.ClearCache(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// preloadResponse is the JSON body of POST /cache/preload.
type preloadResponse struct {
	Loaded []string          `json:"loaded"`
	Failed map[string]string `json:"failed,omitempty"`
}

func (s *server) preloadHandler(w http.ResponseWriter, r *http.Request) {
	paths := r.URL.Query()["path"]
	if len(paths) == 0 {
		http.Error(w, "at least one path parameter is required", http.StatusBadRequest)
		return
	}

	report, err := s.warmer.PreloadAll(r.Context(), paths)

	resp := preloadResponse{Loaded: report.Loaded}
	if resp.Loaded == nil {
		resp.Loaded = []string{}
	}
	if len(report.Failed) > 0 {
		resp.Failed = make(map[string]string, len(report.Failed))
		for p, ferr := range report.Failed {
			resp.Failed[p] = ferr.Error()
		}
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write preload response")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports whether the cache backend is reachable.
func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}
