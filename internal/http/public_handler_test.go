package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/internal/domain/mocks"
	apphttp "github.com/lifenjoy/campaigns/internal/http"
	"github.com/lifenjoy/campaigns/pkg/campaign_page"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

func setupPublicHandlerTest(t *testing.T) (*mocks.MockCampaignService, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	svc := mocks.NewMockCampaignService(ctrl)

	pages, err := campaign_page.NewRenderer()
	require.NoError(t, err)

	mux := http.NewServeMux()
	apphttp.NewPublicHandler(svc, pages, "https://campaigns.example.com/", logger.NewTestLogger(t)).RegisterRoutes(mux)
	return svc, mux
}

func TestPublicHandler_BySlug(t *testing.T) {
	svc, mux := setupPublicHandlerTest(t)
	svc.EXPECT().GetPublicPage(gomock.Any(), "spring").Return(&domain.PublicCampaign{
		Campaign:    &domain.Campaign{ID: 3, Title: "봄 특가", Slug: "spring"},
		BodyHTML:    `<div class="cb-document"><div class="cb-section"></div></div>`,
		OgImageURL:  "https://cdn.example.com/og.png",
		Description: domain.DefaultOgDescription,
	}, nil)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/c/spring", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	body := w.Body.String()
	assert.Contains(t, body, "<title>봄 특가</title>")
	assert.Contains(t, body, `<meta property="og:image" content="https://cdn.example.com/og.png">`)
	assert.Contains(t, body, `<meta property="og:url" content="https://campaigns.example.com/c/spring">`)
	assert.Contains(t, body, `<meta property="og:description" content="`+domain.DefaultOgDescription+`">`)
	assert.Contains(t, body, `<div class="cb-document"><div class="cb-section"></div></div>`)
}

func TestPublicHandler_ByID(t *testing.T) {
	svc, mux := setupPublicHandlerTest(t)
	svc.EXPECT().GetPublicPage(gomock.Any(), "42").Return(&domain.PublicCampaign{
		Campaign:    &domain.Campaign{ID: 42, Title: "t"},
		BodyHTML:    "<div></div>",
		Description: "d",
	}, nil)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/campaign/42", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "og:image")
}

func TestPublicHandler_NotFound(t *testing.T) {
	svc, mux := setupPublicHandlerTest(t)
	svc.EXPECT().GetPublicPage(gomock.Any(), "gone").Return(nil, &domain.ErrCampaignNotFound{Key: "gone"})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/c/gone", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), domain.CampaignNotFoundMessage)
}

func TestPublicHandler_Failure(t *testing.T) {
	svc, mux := setupPublicHandlerTest(t)
	svc.EXPECT().GetPublicPage(gomock.Any(), "spring").Return(nil, errors.New("db down"))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/c/spring", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestPublicHandler_MethodNotAllowed(t *testing.T) {
	_, mux := setupPublicHandlerTest(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/c/spring", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
