// Package server exposes the stored items over a small HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dkendall/homefeed/internal/config"
	"github.com/dkendall/homefeed/internal/store"
	"github.com/dkendall/homefeed/pkg/export"
	"github.com/dkendall/homefeed/pkg/source"
)

// Version is reported by /status.
const Version = "1.2.0"

// DefaultLimit caps /api/feed responses when the query omits limit.
const DefaultLimit = 20

// Server provides the HTTP API.
type Server struct {
	store store.Store
	cors  config.CORSConfig
	addr  string
	start time.Time
}

// New creates a new HTTP server.
func New(st store.Store, cors config.CORSConfig, addr string) *Server {
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	return &Server{
		store: st,
		cors:  cors,
		addr:  addr,
		start: time.Now(),
	}
}

// Handler builds the route table, wrapped in the CORS gate when configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/feed", s.handleFeed)
	mux.HandleFunc("GET /api/item/{id}", s.handleItem)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /rss.xml", s.handleRSS)

	if s.cors.Enabled() {
		return s.corsMiddleware(mux)
	}
	return mux
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully: in-flight requests complete before it returns.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	fmt.Fprintf(os.Stderr, "listening on http://%s\n", s.addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFeedQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := s.store.ListItems(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(items),
		"items": items,
	})
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := s.store.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("item %q not found", id)})
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	total, err := s.store.CountItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	counts, err := s.store.CountBySource(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type sourceStat struct {
		Kind  string `json:"kind"`
		Count int    `json:"count"`
	}
	stats := []sourceStat{}
	for _, kind := range source.AllKinds() {
		if n, ok := counts[kind]; ok {
			stats = append(stats, sourceStat{Kind: kind.String(), Count: n})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        Version,
		"uptime_seconds": int(time.Since(s.start).Seconds()),
		"total_items":    total,
		"sources":        stats,
	})
}

func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFeedQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := s.store.ListItems(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, items, export.FormatRSS); err != nil {
		fmt.Fprintf(os.Stderr, "rss render error: %v\n", err)
	}
}

// parseFeedQuery maps query parameters onto a Filter, applying the default
// limit. Zero and negative limits are rejected, never silently defaulted.
func parseFeedQuery(r *http.Request) (source.Filter, error) {
	q := r.URL.Query()
	filter := source.Filter{Limit: DefaultLimit}

	if v := strings.TrimSpace(q.Get("source_kind")); v != "" {
		kind, err := source.ParseKind(v)
		if err != nil {
			return source.Filter{}, err
		}
		filter.Kind = kind
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return source.Filter{}, fmt.Errorf("%w: limit must be a number", source.ErrInvalidArgument)
		}
		if n <= 0 {
			return source.Filter{}, fmt.Errorf("%w: limit must be greater than zero", source.ErrInvalidArgument)
		}
		filter.Limit = n
	}

	filter.SourceID = strings.TrimSpace(q.Get("source_id"))
	filter.Since = strings.TrimSpace(q.Get("since"))
	filter.Query = strings.TrimSpace(q.Get("q"))
	return filter, nil
}

// corsMiddleware validates origins and dev keys before passing requests on.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		devKey := r.Header.Get("X-Local-Dev-Key")

		var authorized bool
		switch {
		case devKey != "":
			authorized = s.cors.IsDevKeyValid(devKey)
		case origin != "":
			authorized = s.cors.IsOriginAllowed(origin)
		default:
			// Non-browser clients send no Origin and are not gated.
			authorized = true
		}

		if r.Method == http.MethodOptions {
			if !authorized {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "origin not allowed"})
				return
			}
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Local-Dev-Key")
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if origin != "" && !authorized {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "origin not allowed"})
			return
		}

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps taxonomy errors to status codes. Internal failures get a
// generic body; detail stays on the server side.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, source.ErrInvalidArgument) || errors.Is(err, source.ErrUnknownKind) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	fmt.Fprintf(os.Stderr, "internal error: %v\n", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
