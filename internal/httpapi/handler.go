package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	"arogya/internal/audit"
	"arogya/internal/config"
	"arogya/internal/observability"
	"arogya/internal/store"
	"arogya/internal/workflow"
)

const maxBodyBytes = 8 << 20 // room for a base64 retinal photo

// Handler binds the workflow engine and the extraction auditor to HTTP.
type Handler struct {
	Config   config.Config
	Engine   *workflow.Engine
	Store    *store.Store // optional
	Observer *observability.SeverityObserver
	Limiter  *RateLimiter

	Pingers []Pinger
}

// Pinger is anything healthz should reach: the run store, the redis session
// backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewHandler(cfg config.Config, engine *workflow.Engine, st *store.Store) *Handler {
	return &Handler{
		Config:   cfg,
		Engine:   engine,
		Store:    st,
		Observer: observability.NewSeverityObserver(nil, 0),
		Limiter:  NewRateLimiter(),
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/triage", h.handleTriage)
	mux.HandleFunc("/v1/extract/audit", h.handleExtractAudit)
	mux.HandleFunc("/healthz", h.handleHealthz)
}

func (h *Handler) handleTriage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.authorize(w, r) {
		return
	}

	var req workflow.Request
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "missing query", http.StatusBadRequest)
		return
	}

	requestID := observability.NewRequestID()
	resp := h.Engine.Execute(r.Context(), req)
	h.Observer.Record(requestID, req.CheckType, string(resp.Severity))

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleExtractAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.authorize(w, r) {
		return
	}

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := audit.Audit(payload)

	if h.Store != nil {
		err := h.Store.InsertExtractionAudit(r.Context(), store.ExtractionAudit{
			ConfidenceScore: result.ConfidenceScore,
			ConfidenceLevel: result.ConfidenceLevel,
			IssuesFound:     result.IssuesFound,
			Payload:         result.ValidatedData,
		})
		if err != nil {
			log.Printf("extraction audit persist failed err=%v", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	for _, pinger := range h.Pingers {
		if err := pinger.Ping(r.Context()); err != nil {
			http.Error(w, "unhealthy: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorize enforces the API key when one is configured and applies the
// per-caller rate limit.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) bool {
	key := r.Header.Get("X-API-Key")
	if h.Config.Security.APIKey != "" && key != h.Config.Security.APIKey {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}

	caller := key
	if caller == "" {
		caller = remoteHost(r)
	}
	allowed, retryAfter := h.Limiter.Allow(caller, h.Config.Security.RequestsPerMin)
	if !allowed {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return false
	}
	return true
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeJSON(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("response encode failed err=%v", err)
	}
}
