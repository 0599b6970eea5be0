package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hazyhaar/libraire/catalog"
	"github.com/hazyhaar/libraire/dbopen"
	"log/slog"

	_ "modernc.org/sqlite"
)

func main() {
	port := env("PORT", "8086")
	configPath := env("CONFIG", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
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

	// Config: file when given, env overrides on top.
	cfg := &catalog.Config{}
	if configPath != "" {
		loaded, err := catalog.LoadConfigFile(configPath)
		if err != nil {
			slog.Error("load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CATALOG_DB"); v != "" {
		cfg.DBPath = v
	}
	if os.Getenv("CRAWL_DISABLED") == "1" {
		cfg.Crawl.Disabled = true
	}
	cfg.Crawl.Logger = logger

	db, err := dbopen.Open(env("CATALOG_DB", cfg.DBPath), dbopen.WithMkdirAll(), dbopen.WithSchema(catalog.Schema))
	if err != nil {
		slog.Error("catalog db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc := catalog.New(db, cfg, logger)
	if err := svc.Start(); err != nil {
		slog.Warn("browser session unavailable, serving from cache and fallback", "error", err)
	}
	defer svc.Close()

	// Router.
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/navigation", func(w http.ResponseWriter, r *http.Request) {
		cats, err := svc.Navigation(r.Context(), queryBool(r, "force"))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, cats)
	})

	r.Get("/products/{category}", func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		limit := queryInt(r, "limit", 0)
		products, err := svc.Products(r.Context(), category, queryBool(r, "force"), limit)
		if err != nil {
			writeError(w, 400, err)
			return
		}
		writeJSON(w, 200, products)
	})

	r.Get("/product/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		product, detail, err := svc.Product(r.Context(), id)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if product == nil {
			writeJSON(w, 404, map[string]string{"error": "product not found"})
			return
		}
		writeJSON(w, 200, map[string]any{"product": product, "detail": detail})
	})

	// Manual refresh trigger: type is "navigation" or a category slug.
	r.Post("/scrape/{type}", func(w http.ResponseWriter, r *http.Request) {
		kind := strings.ToLower(chi.URLParam(r, "type"))
		if kind == catalog.NavigationKey {
			cats, err := svc.Navigation(r.Context(), true)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, map[string]any{"refreshed": catalog.NavigationKey, "count": len(cats)})
			return
		}
		products, err := svc.Products(r.Context(), kind, true, 0)
		if err != nil {
			writeError(w, 400, err)
			return
		}
		writeJSON(w, 200, map[string]any{"refreshed": kind, "count": len(products)})
	})

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
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

func queryBool(r *http.Request, key string) bool {
	v := r.URL.Query().Get(key)
	return v == "1" || v == "true"
}
