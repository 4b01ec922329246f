package http

import (
	"net/http"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

// ProductHandler exposes the product information crawler.
type ProductHandler struct {
	service     domain.CrawlerService
	requireAuth func(http.Handler) http.Handler
	logger      logger.Logger
}

func NewProductHandler(service domain.CrawlerService, requireAuth func(http.Handler) http.Handler, logger logger.Logger) *ProductHandler {
	return &ProductHandler{
		service:     service,
		requireAuth: requireAuth,
		logger:      logger,
	}
}

func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/api/products.fetchInfo", h.requireAuth(http.HandlerFunc(h.handleFetchInfo)))
}

// handleFetchInfo answers 200 even when nothing was found; the result then
// carries an error label and the crawl log.
func (h *ProductHandler) handleFetchInfo(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.FetchProductInfoRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.FetchProductInfo(r.Context(), sessionFrom(r), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch product info")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
