// Package server exposes the news pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cast"
	"github.com/techbeetle/news-router/internal/ingest"
	"github.com/techbeetle/news-router/internal/logger"
)

const maxRequestBytes = 1 << 20

// Pipeline is the request handler behind the route.
type Pipeline interface {
	Handle(ctx context.Context, req ingest.Request) (*ingest.Response, error)
}

// Server holds the dependencies for the HTTP surface.
type Server struct {
	pipeline Pipeline
	log      logger.Logger
}

// New creates a Server.
func New(pipeline Pipeline, log logger.Logger) *Server {
	return &Server{pipeline: pipeline, log: logger.Ensure(log)}
}

// Routes returns the configured handler, CORS included.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /news-router", s.handleNewsRouter())
	mux.HandleFunc("OPTIONS /news-router", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return corsMiddleware(mux)
}

// requestBody fields are loosely typed: callers send booleans, strings and numbers interchangeably.
type requestBody struct {
	Refresh     any `json:"refresh"`
	BypassCache any `json:"bypass_cache"`
	TriggeredAt any `json:"triggered_at"`
	Query       any `json:"query"`
}

func (s *Server) handleNewsRouter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseRequest(r)
		if err != nil {
			s.log.ErrorObj("invalid request", "request_error", map[string]any{"error": err.Error()})
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		resp, err := s.pipeline.Handle(r.Context(), req)
		if err != nil {
			s.log.ErrorObj("pipeline failed", "pipeline_error", map[string]any{
				"country": req.Country,
				"error":   err.Error(),
			})
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

func parseRequest(r *http.Request) (ingest.Request, error) {
	body, err := decodeBody(r)
	if err != nil {
		return ingest.Request{}, err
	}

	bypass := flag(body.Refresh) || flag(body.BypassCache) || truthy(body.TriggeredAt) ||
		cast.ToBool(strings.TrimSpace(r.Header.Get("x-bypass-cache")))

	return ingest.Request{
		Country:     resolveCountry(r),
		Query:       strings.TrimSpace(cast.ToString(body.Query)),
		BypassCache: bypass,
	}, nil
}

// decodeBody treats an empty body as {}; anything else must be a JSON object.
func decodeBody(r *http.Request) (requestBody, error) {
	var body requestBody
	if r.Body == nil {
		return body, nil
	}
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	if err != nil {
		return body, fmt.Errorf("read request body: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return body, fmt.Errorf("invalid JSON body: %w", err)
	}
	return body, nil
}

// resolveCountry reads x-country, lets the country query param override it, and falls back to us.
func resolveCountry(r *http.Request) string {
	country := r.Header.Get("x-country")
	if q := r.URL.Query().Get("country"); q != "" {
		country = q
	}
	return ingest.NormalizeCountry(country)
}

// flag accepts true, "true", "1", 1 and friends.
func flag(v any) bool {
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

// truthy mirrors loose truthiness: any non-empty string or non-zero number counts.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type, x-country, x-bypass-cache")
		next.ServeHTTP(w, r)
	})
}

// IsClosed reports whether err is the expected result of a graceful shutdown.
func IsClosed(err error) bool {
	return errors.Is(err, http.ErrServerClosed)
}
