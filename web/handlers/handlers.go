// Package handlers exposes the HTTP API for collaboration sessions.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/export"
	"github.com/nhalim/symposium/internal/provider"
	"github.com/nhalim/symposium/internal/runner"
	"github.com/nhalim/symposium/internal/session"
)

// Handler serves the HTTP API.
type Handler struct {
	engine      *session.Engine
	registry    *provider.Registry
	healthCache *providerHealthCache
}

// New creates a handler backed by the given engine.
func New(engine *session.Engine) *Handler {
	return &Handler{
		engine:      engine,
		registry:    engine.Registry(),
		healthCache: newProviderHealthCache(defaultProviderHealthCachePath(), providerHealthCacheTTL),
	}
}

// RegisterRoutes mounts all API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", h.handleProviders)
		r.Get("/providers/health", h.handleProvidersHealth)
		r.Get("/instances", h.handleInstances)
		r.Get("/modes", h.handleModes)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.handleListSessions)
			r.Post("/", h.handleCreateSession)
			r.Get("/{id}", h.handleGetSession)
			r.Delete("/{id}", h.handleDeleteSession)
			r.Get("/{id}/stream", h.handleSessionStream)
			r.Get("/{id}/export/{format}", h.handleExportSession)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.json(w, map[string]string{"status": "ok"})
	})
}

func (h *Handler) handleProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.registry.List()
	result := make([]map[string]interface{}, 0, len(providers))

	for _, p := range providers {
		if p.Name() == "mock" {
			continue
		}
		result = append(result, map[string]interface{}{
			"name":          p.Name(),
			"display_name":  p.DisplayName(),
			"available":     p.Available(),
			"models":        p.Models(),
			"default_model": p.DefaultModel(),
		})
	}

	h.json(w, result)
}

func (h *Handler) handleProvidersHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	refresh := r.URL.Query().Get("refresh") == "true"
	result := make(map[string]interface{})

	for _, p := range h.registry.List() {
		if p.Name() == "mock" {
			continue
		}

		status, cached := h.healthCache.GetFresh(p.Name())
		if refresh || !cached {
			status = p.HealthCheck(ctx)
			h.healthCache.Set(p.Name(), status)
		}

		result[p.Name()] = map[string]interface{}{
			"available":     status.Available,
			"response_time": status.ResponseTime.Seconds(),
			"error":         status.Error,
			"checked_at":    status.CheckedAt,
		}
	}

	h.json(w, map[string]interface{}{
		"providers": result,
	})
}

func (h *Handler) handleInstances(w http.ResponseWriter, r *http.Request) {
	h.json(w, h.engine.Instances())
}

func (h *Handler) handleModes(w http.ResponseWriter, r *http.Request) {
	h.json(w, core.Modes())
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	sessions, err := h.engine.ListSessions(limit, offset)
	if err != nil {
		slog.Error("Failed to list sessions", "error", err)
		h.jsonError(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}
	h.json(w, sessions)
}

// createSessionRequest is the POST /api/sessions body.
type createSessionRequest struct {
	Prompt    string          `json:"prompt"`
	Mode      string          `json:"mode"`
	Instances []core.Instance `json:"instances,omitempty"`
	Primary   string          `json:"primary,omitempty"`
	Rounds    int             `json:"rounds,omitempty"`
	MaxRounds int             `json:"max_rounds,omitempty"`
	Threshold float64         `json:"threshold,omitempty"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req := session.RunRequest{
		Mode:      core.Mode(body.Mode),
		Prompt:    body.Prompt,
		Instances: body.Instances,
	}
	if body.Primary != "" || body.Rounds > 0 || body.MaxRounds > 0 || body.Threshold > 0 {
		req.Options = &runner.Options{
			PrimaryID: body.Primary,
			Rounds:    body.Rounds,
			MaxRounds: body.MaxRounds,
			Threshold: body.Threshold,
		}
	}

	sess, err := h.engine.CreateSession(req)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Runs detached from the request context so the session survives the
	// client disconnecting. Progress is available on the stream endpoint.
	go func() {
		if _, _, err := h.engine.Run(context.Background(), sess.ID, req); err != nil {
			slog.Error("Session run failed", "session", sess.ID, "error", err)
		}
	}()

	w.WriteHeader(http.StatusCreated)
	h.json(w, sess)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, turns, err := h.engine.GetSessionWithTurns(id)
	if err != nil {
		slog.Error("Failed to get session", "id", id, "error", err)
		h.jsonError(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		h.jsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	h.json(w, map[string]interface{}{
		"session": sess,
		"turns":   turns,
	})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.engine.DeleteSession(id); err != nil {
		slog.Error("Failed to delete session", "id", id, "error", err)
		h.jsonError(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := export.Format(chi.URLParam(r, "format"))

	sess, turns, err := h.engine.GetSessionWithTurns(id)
	if err != nil {
		slog.Error("Failed to get session for export", "id", id, "error", err)
		h.jsonError(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		h.jsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	exporter, err := export.GetExporter(format)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := export.GenerateFilename(sess, exporter.FileExtension())
	switch format {
	case export.FormatPDF:
		w.Header().Set("Content-Type", "application/pdf")
	case export.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")

	if err := exporter.Export(sess, turns, w); err != nil {
		slog.Error("Failed to export session", "id", id, "format", format, "error", err)
	}
}

func (h *Handler) json(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
