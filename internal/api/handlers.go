package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/maltedev/product-scout/internal/models"
)

// Pipeline is the scrape-and-enrich run exposed over HTTP.
type Pipeline interface {
	Run(ctx context.Context, query string, limit int) ([]*models.Product, error)
}

type Handlers struct {
	pipeline    Pipeline
	logger      *slog.Logger
	maxProducts int
}

func NewHandlers(pipeline Pipeline, maxProducts int, logger *slog.Logger) *Handlers {
	return &Handlers{
		pipeline:    pipeline,
		logger:      logger.With("component", "api"),
		maxProducts: maxProducts,
	}
}

type SearchRequest struct {
	Query       string `json:"query"`
	MaxProducts int    `json:"max_products"`
}

type SearchResponse struct {
	Query    string            `json:"query"`
	Count    int               `json:"count"`
	Products []*models.Product `json:"products"`
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	if req.MaxProducts < 1 {
		req.MaxProducts = h.maxProducts
	}

	products, err := h.pipeline.Run(r.Context(), req.Query, req.MaxProducts)
	if err != nil {
		h.logger.Error("pipeline run failed", "query", req.Query, "error", err)
		h.respondError(w, http.StatusBadGateway, "product acquisition failed")
		return
	}

	h.respondJSON(w, http.StatusOK, SearchResponse{
		Query:    req.Query,
		Count:    len(products),
		Products: products,
	})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
