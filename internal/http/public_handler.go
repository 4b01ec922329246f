package http

import (
	"net/http"
	"strings"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/campaign_page"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

// PublicHandler serves published campaign pages to anonymous visitors.
type PublicHandler struct {
	service   domain.CampaignService
	pages     *campaign_page.Renderer
	publicURL string
	logger    logger.Logger
}

func NewPublicHandler(service domain.CampaignService, pages *campaign_page.Renderer, publicURL string, logger logger.Logger) *PublicHandler {
	return &PublicHandler{
		service:   service,
		pages:     pages,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

func (h *PublicHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /c/{slug}", h.handleCampaign("slug"))
	mux.HandleFunc("GET /campaign/{id}", h.handleCampaign("id"))
}

func (h *PublicHandler) handleCampaign(param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.PathValue(param))

		page, err := h.service.GetPublicPage(r.Context(), key)
		if err != nil {
			if domain.IsNotFound(err) {
				h.writeNotFound(w)
				return
			}
			h.logger.WithField("key", key).WithField("error", err.Error()).Error("Failed to load public campaign")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		out, err := h.pages.Render(campaign_page.Page{
			Title:        page.Campaign.Title,
			Description:  page.Description,
			ImageURL:     page.OgImageURL,
			CanonicalURL: h.canonicalURL(r),
			Body:         page.BodyHTML,
		})
		if err != nil {
			h.logger.WithField("campaign_id", page.Campaign.ID).WithField("error", err.Error()).Error("Failed to render campaign page")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		writeHTML(w, http.StatusOK, out)
	}
}

func (h *PublicHandler) writeNotFound(w http.ResponseWriter) {
	out, err := h.pages.RenderNotFound(domain.CampaignNotFoundMessage)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to render not found page")
		http.Error(w, domain.CampaignNotFoundMessage, http.StatusNotFound)
		return
	}
	writeHTML(w, http.StatusNotFound, out)
}

func (h *PublicHandler) canonicalURL(r *http.Request) string {
	if h.publicURL == "" {
		return ""
	}
	return h.publicURL + r.URL.Path
}

// writeHTML writes an uncached HTML document.
func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
