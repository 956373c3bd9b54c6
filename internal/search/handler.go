package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Response is the JSON envelope for search queries.
type Response struct {
	Query     string   `json:"query"`
	TotalHits int      `json:"total_hits"`
	Results   []Result `json:"results"`
}

// Handler exposes the search engine over local HTTP.
type Handler struct {
	engine *Engine
	logger *slog.Logger
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{
		engine: engine,
		logger: slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=...&limit=...&page=...&pageSize=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := intParam(r, "limit", 0)
	page := intParam(r, "page", 0)
	pageSize := intParam(r, "pageSize", 0)

	var results []Result
	if page > 0 && pageSize > 0 {
		results = h.engine.SearchPaginated(r.Context(), query, page, pageSize)
	} else {
		results = h.engine.SearchWithLimit(r.Context(), query, limit)
	}
	if results == nil {
		results = []Result{}
	}

	writeJSON(w, http.StatusOK, Response{
		Query:     query,
		TotalHits: len(results),
		Results:   results,
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, h.engine.Stats(ctx))
}

func intParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
