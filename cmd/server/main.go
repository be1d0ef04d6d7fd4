package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cryptodash/internal/cache"
	"cryptodash/internal/coingecko"
	"cryptodash/internal/config"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/httpx"
	"cryptodash/internal/market"
)

const maxSnapshotIDs = 250

type snapshotResponse struct {
	Rows []market.SnapshotRow `json:"rows"`
}

type historyResponse struct {
	ID   string       `json:"id"`
	Days int          `json:"days"`
	Bars []market.Bar `json:"bars"`
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec)*time.Second, "cryptodash/1.0")

	gecko, err := coingecko.NewAPIClient(cfg.CoinGecko.APIKey, geckoOptions(cfg.CoinGecko, httpClient)...)
	if err != nil {
		logger.Fatal("coingecko client", zap.Error(err))
	}

	svc := dashboard.New(gecko, cache.New(),
		dashboard.WithSnapshotTTL(time.Duration(cfg.CoinGecko.SnapshotTTLSec)*time.Second),
		dashboard.WithHistoryTTL(time.Duration(cfg.CoinGecko.HistoryTTLSec)*time.Second),
		dashboard.WithLogger(logger),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/snapshot", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleSnapshot(w, r, svc, cfg.CoinGecko.InstrumentIDs)
	})
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleHistory(w, r, svc, cfg.CoinGecko.HistoryDays)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(logger, mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func geckoOptions(cfg config.CoinGecko, httpClient *http.Client) []coingecko.APIClientOption {
	opts := []coingecko.APIClientOption{coingecko.WithHTTPClient(httpClient)}
	if cfg.BaseURL != "" {
		opts = append(opts, coingecko.WithBaseURL(cfg.BaseURL))
	}
	return opts
}

func handleSnapshot(w http.ResponseWriter, r *http.Request, svc *dashboard.Service, defaultIDs []string) {
	ids := defaultIDs
	if q := strings.TrimSpace(r.URL.Query().Get("ids")); q != "" {
		ids = splitCSV(q)
	}
	if len(ids) == 0 {
		http.Error(w, "no instrument ids configured or given", http.StatusBadRequest)
		return
	}
	if len(ids) > maxSnapshotIDs {
		http.Error(w, "too many ids (max "+strconv.Itoa(maxSnapshotIDs)+")", http.StatusBadRequest)
		return
	}
	// an empty table is a valid "no live data" answer, not an error
	writeJSON(w, snapshotResponse{Rows: svc.Snapshot(r.Context(), ids)})
}

func handleHistory(w http.ResponseWriter, r *http.Request, svc *dashboard.Service, defaultDays int) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "missing id query param", http.StatusBadRequest)
		return
	}
	days := defaultDays
	if q := strings.TrimSpace(r.URL.Query().Get("days")); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = v
	}
	writeJSON(w, historyResponse{ID: id, Days: days, Bars: svc.History(r.Context(), id, days)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser dashboards; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("handler panic", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
