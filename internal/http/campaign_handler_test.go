package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/internal/domain/mocks"
	apphttp "github.com/lifenjoy/campaigns/internal/http"
	"github.com/lifenjoy/campaigns/internal/http/middleware"
	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

var testSession = &domain.Session{
	UserID:    "user-1",
	Email:     "admin@example.com",
	Name:      "Admin",
	Role:      domain.UserRoleAdmin,
	ExpiresAt: time.Now().Add(time.Hour),
}

// withSession stands in for the auth middleware in handler tests.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), domain.SessionKey, testSession)))
	})
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func setupCampaignHandlerTest(t *testing.T) (*mocks.MockCampaignService, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	svc := mocks.NewMockCampaignService(ctrl)

	mux := http.NewServeMux()
	apphttp.NewCampaignHandler(svc, withSession, logger.NewTestLogger(t)).RegisterRoutes(mux)
	return svc, mux
}

func TestCampaignHandler_List(t *testing.T) {
	svc, mux := setupCampaignHandlerTest(t)

	svc.EXPECT().List(gomock.Any(), testSession).Return([]*domain.Campaign{
		{ID: 2, Title: "Second", Status: domain.CampaignStatusDraft, Blocks: json.RawMessage("[]")},
		{ID: 1, Title: "First", Status: domain.CampaignStatusPublished, Blocks: json.RawMessage("[]")},
	}, nil)

	w := doJSON(t, mux, http.MethodGet, "/api/campaigns.list", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	campaigns := body["campaigns"].([]interface{})
	require.Len(t, campaigns, 2)
	assert.Equal(t, "Second", campaigns[0].(map[string]interface{})["title"])

	w = doJSON(t, mux, http.MethodPost, "/api/campaigns.list", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCampaignHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc, mux := setupCampaignHandlerTest(t)
		svc.EXPECT().Get(gomock.Any(), testSession, int64(7)).Return(&domain.Campaign{ID: 7, Title: "Spring", Blocks: json.RawMessage("[]")}, nil)

		w := doJSON(t, mux, http.MethodGet, "/api/campaigns.get?id=7", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Spring", decodeBody(t, w)["campaign"].(map[string]interface{})["title"])
	})

	t.Run("bad id", func(t *testing.T) {
		_, mux := setupCampaignHandlerTest(t)
		w := doJSON(t, mux, http.MethodGet, "/api/campaigns.get?id=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc, mux := setupCampaignHandlerTest(t)
		svc.EXPECT().Get(gomock.Any(), testSession, int64(9)).Return(nil, &domain.ErrCampaignNotFound{Key: "9"})

		w := doJSON(t, mux, http.MethodGet, "/api/campaigns.get?id=9", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, domain.CampaignNotFoundMessage, decodeBody(t, w)["error"])
	})
}

func TestCampaignHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc, mux := setupCampaignHandlerTest(t)
		svc.EXPECT().Create(gomock.Any(), testSession, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ *domain.Session, req *domain.CreateCampaignRequest) (*domain.Campaign, error) {
				assert.Equal(t, "Spring", req.Title)
				assert.Equal(t, "spring", req.Slug)
				return &domain.Campaign{ID: 1, Title: req.Title, Slug: req.Slug, Blocks: json.RawMessage("[]")}, nil
			})

		w := doJSON(t, mux, http.MethodPost, "/api/campaigns.create", map[string]interface{}{"title": "Spring", "slug": "spring"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		_, mux := setupCampaignHandlerTest(t)
		w := doJSON(t, mux, http.MethodPost, "/api/campaigns.create", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("slug taken", func(t *testing.T) {
		svc, mux := setupCampaignHandlerTest(t)
		svc.EXPECT().Create(gomock.Any(), testSession, gomock.Any()).Return(nil, domain.ErrSlugTaken)

		w := doJSON(t, mux, http.MethodPost, "/api/campaigns.create", map[string]interface{}{"title": "x", "slug": "spring"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, domain.ErrSlugTaken.Error(), decodeBody(t, w)["error"])
	})

	t.Run("validation", func(t *testing.T) {
		svc, mux := setupCampaignHandlerTest(t)
		svc.EXPECT().Create(gomock.Any(), testSession, gomock.Any()).Return(nil, domain.NewValidationError("title is required"))

		w := doJSON(t, mux, http.MethodPost, "/api/campaigns.create", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("internal error is not leaked", func(t *testing.T) {
		svc, mux := setupCampaignHandlerTest(t)
		svc.EXPECT().Create(gomock.Any(), testSession, gomock.Any()).Return(nil, errors.New("pq: connection refused"))

		w := doJSON(t, mux, http.MethodPost, "/api/campaigns.create", map[string]interface{}{"title": "x"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to create campaign", decodeBody(t, w)["error"])
	})
}

func TestCampaignHandler_UpdateConflict(t *testing.T) {
	svc, mux := setupCampaignHandlerTest(t)
	svc.EXPECT().Update(gomock.Any(), testSession, gomock.Any()).Return(nil, &domain.ErrVersionConflict{CampaignID: 3, Expected: 1, Actual: 2})

	w := doJSON(t, mux, http.MethodPost, "/api/campaigns.update", map[string]interface{}{"id": 3, "title": "x", "baseVersion": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCampaignHandler_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		svc, mux := setupCampaignHandlerTest(t)
		svc.EXPECT().Delete(gomock.Any(), testSession, int64(4)).Return(nil)

		w := doJSON(t, mux, http.MethodPost, "/api/campaigns.delete", map[string]interface{}{"id": 4})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeBody(t, w)["success"])
	})

	t.Run("missing id", func(t *testing.T) {
		_, mux := setupCampaignHandlerTest(t)
		w := doJSON(t, mux, http.MethodPost, "/api/campaigns.delete", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCampaignHandler_Save(t *testing.T) {
	svc, mux := setupCampaignHandlerTest(t)
	svc.EXPECT().Save(gomock.Any(), testSession, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *domain.Session, req *domain.SaveCampaignRequest) (*domain.Campaign, error) {
			assert.Equal(t, int64(5), req.ID)
			assert.JSONEq(t, `[{"id":"s1","type":"section","style":{},"children":[]}]`, string(req.Blocks))
			return &domain.Campaign{ID: 5, Title: req.Title, Status: domain.CampaignStatusPublished, Blocks: req.Blocks, Version: 2}, nil
		})

	w := doJSON(t, mux, http.MethodPost, "/api/campaigns.save", `{"id":5,"title":"t","blocks":[{"id":"s1","type":"section","style":{},"children":[]}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	campaign := decodeBody(t, w)["campaign"].(map[string]interface{})
	assert.Equal(t, "published", campaign["status"])
}

func TestCampaignHandler_Edit(t *testing.T) {
	t.Run("applies operations", func(t *testing.T) {
		svc, mux := setupCampaignHandlerTest(t)
		svc.EXPECT().Edit(gomock.Any(), testSession, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ *domain.Session, req *domain.EditCampaignRequest) (*domain.EditCampaignResponse, error) {
				require.Len(t, req.Operations, 2)
				assert.Equal(t, campaign_blocks.OpSelect, req.Operations[0].Op)
				assert.Equal(t, campaign_blocks.OpAddBlock, req.Operations[1].Op)
				assert.Equal(t, campaign_blocks.BlockTypeText, req.Operations[1].BlockType)
				return &domain.EditCampaignResponse{
					Campaign: &domain.Campaign{ID: 5},
					Sections: []campaign_blocks.Section{},
					Saved:    req.Save,
				}, nil
			})

		w := doJSON(t, mux, http.MethodPost, "/api/campaigns.edit", `{"id":5,"save":true,"operations":[
			{"op":"select","selection":{"kind":"section","sectionId":"s1"}},
			{"op":"addBlock","blockType":"text"}
		]}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeBody(t, w)["saved"])
	})

	t.Run("operation failure is a bad request", func(t *testing.T) {
		svc, mux := setupCampaignHandlerTest(t)
		svc.EXPECT().Edit(gomock.Any(), testSession, gomock.Any()).Return(nil,
			&campaign_blocks.OperationError{Index: 0, Op: campaign_blocks.OpDeleteSection, Err: campaign_blocks.ErrNotConfirmed})

		w := doJSON(t, mux, http.MethodPost, "/api/campaigns.edit", `{"id":5,"operations":[{"op":"deleteSection","sectionId":"s1"}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody(t, w)["error"], "deleteSection")
	})
}

func TestCampaignHandler_Preview(t *testing.T) {
	svc, mux := setupCampaignHandlerTest(t)
	svc.EXPECT().Preview(gomock.Any(), testSession, gomock.Any()).Return(`<div class="cb-document"></div>`, nil)

	w := doJSON(t, mux, http.MethodPost, "/api/campaigns.preview", map[string]interface{}{"id": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `<div class="cb-document"></div>`, decodeBody(t, w)["html"])
}

func TestCampaignHandler_RequiresAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockCampaignService(ctrl)
	auth := mocks.NewMockAuthService(ctrl)

	mux := http.NewServeMux()
	apphttp.NewCampaignHandler(svc, middleware.RequireAuth(auth), logger.NewTestLogger(t)).RegisterRoutes(mux)

	w := doJSON(t, mux, http.MethodGet, "/api/campaigns.list", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	auth.EXPECT().VerifyToken(gomock.Any(), "good").Return(testSession, nil)
	svc.EXPECT().List(gomock.Any(), testSession).Return([]*domain.Campaign{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns.list", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
