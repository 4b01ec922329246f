package domain

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateCampaignRequest_Validate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req := &CreateCampaignRequest{Title: "  <b>봄 프로모션</b> "}
		campaign, err := req.Validate()
		require.NoError(t, err)
		assert.Equal(t, "봄 프로모션", campaign.Title)
		assert.Equal(t, CampaignStatusDraft, campaign.Status)
		assert.JSONEq(t, "[]", string(campaign.Blocks))
		assert.Equal(t, 2, campaign.SchemaVersion)
	})

	t.Run("keeps ampersands as plain text", func(t *testing.T) {
		req := &CreateCampaignRequest{Title: "TV & 냉장고", OgDescription: "<script>x</script>할인"}
		campaign, err := req.Validate()
		require.NoError(t, err)
		assert.Equal(t, "TV & 냉장고", campaign.Title)
		assert.Equal(t, "할인", campaign.OgDescription)
	})

	tests := []struct {
		name string
		req  CreateCampaignRequest
	}{
		{name: "missing title", req: CreateCampaignRequest{}},
		{name: "markup only title", req: CreateCampaignRequest{Title: "<img src=x>"}},
		{name: "bad status", req: CreateCampaignRequest{Title: "a", Status: "archived"}},
		{name: "bad slug", req: CreateCampaignRequest{Title: "a", Slug: "spring sale!"}},
		{name: "invalid blocks", req: CreateCampaignRequest{Title: "a", Blocks: json.RawMessage(`[{`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Validate()
			assert.Error(t, err)
		})
	}
}

func TestUpdateCampaignRequest_Validate(t *testing.T) {
	published := CampaignStatusPublished
	req := &UpdateCampaignRequest{ID: 3, Slug: strPtr(" spring-2025 "), Status: &published, OgImage: strPtr("storage-ref")}
	patch, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, "spring-2025", *patch.Slug)
	assert.Equal(t, CampaignStatusPublished, *patch.Status)
	assert.Equal(t, "storage-ref", *patch.OgImage)
	assert.Nil(t, patch.Title)

	// clearing the slug is allowed
	patch, err = (&UpdateCampaignRequest{ID: 3, Slug: strPtr("")}).Validate()
	require.NoError(t, err)
	assert.Equal(t, "", *patch.Slug)

	_, err = (&UpdateCampaignRequest{ID: 3}).Validate()
	assert.ErrorContains(t, err, "nothing to update")

	_, err = (&UpdateCampaignRequest{Title: strPtr("x")}).Validate()
	assert.ErrorContains(t, err, "id is required")

	_, err = (&UpdateCampaignRequest{ID: 1, Slug: strPtr("a/b")}).Validate()
	assert.Error(t, err)

	bad := CampaignStatus("archived")
	_, err = (&UpdateCampaignRequest{ID: 1, Status: &bad}).Validate()
	assert.Error(t, err)
}

func TestSaveAndEditRequests(t *testing.T) {
	assert.NoError(t, (&SaveCampaignRequest{ID: 1, Title: "t", Blocks: json.RawMessage(`[]`)}).Validate())
	assert.Error(t, (&SaveCampaignRequest{ID: 1, Title: "", Blocks: json.RawMessage(`[]`)}).Validate())
	assert.Error(t, (&SaveCampaignRequest{ID: 1, Title: "t"}).Validate())
	assert.Error(t, (&SaveCampaignRequest{Title: "t", Blocks: json.RawMessage(`[]`)}).Validate())

	assert.Error(t, (&EditCampaignRequest{ID: 1}).Validate())
	assert.Error(t, (&PreviewCampaignRequest{}).Validate())
	assert.NoError(t, (&PreviewCampaignRequest{Blocks: json.RawMessage(`[]`)}).Validate())
	assert.Error(t, (&DeleteCampaignRequest{}).Validate())
}

func TestGetCampaignRequest_FromURLParams(t *testing.T) {
	var req GetCampaignRequest
	require.NoError(t, req.FromURLParams(url.Values{"id": []string{"42"}}))
	assert.Equal(t, int64(42), req.ID)

	assert.Error(t, req.FromURLParams(url.Values{}))
	assert.Error(t, req.FromURLParams(url.Values{"id": []string{"-1"}}))
	assert.Error(t, req.FromURLParams(url.Values{"id": []string{"abc"}}))
}

type fakeRow struct {
	values []interface{}
}

func (r fakeRow) Scan(dest ...interface{}) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *int:
			*p = r.values[i].(int)
		case *string:
			*p = r.values[i].(string)
		case **string:
			if r.values[i] != nil {
				s := r.values[i].(string)
				*p = &s
			}
		case *[]byte:
			if r.values[i] != nil {
				*p = r.values[i].([]byte)
			}
		case *time.Time:
			*p = r.values[i].(time.Time)
		case **time.Time:
			if r.values[i] != nil {
				t := r.values[i].(time.Time)
				*p = &t
			}
		}
	}
	return nil
}

func TestScanCampaign(t *testing.T) {
	now := time.Now()
	row := fakeRow{values: []interface{}{
		int64(5), "Spring", "published", nil, "spring", nil, "desc", nil,
		int64(12), int64(3), 2, now, now,
	}}

	c, err := ScanCampaign(row)
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.ID)
	assert.Equal(t, CampaignStatusPublished, c.Status)
	assert.Equal(t, "[]", string(c.Blocks))
	assert.Equal(t, "spring", c.Slug)
	assert.Empty(t, c.OgImage)
	assert.Equal(t, "desc", c.Description())
	assert.Equal(t, int64(3), c.Version)
	assert.Empty(t, c.Sections())

	c.OgDescription = " "
	assert.Equal(t, DefaultOgDescription, c.Description())
}

func TestSession(t *testing.T) {
	assert.ErrorIs(t, RequireSession(nil), ErrUnauthorized)
	assert.ErrorIs(t, RequireSession(&Session{UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute)}), ErrUnauthorized)
	assert.NoError(t, RequireSession(&Session{UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}))
	assert.True(t, (&Session{Role: UserRoleAdmin}).IsAdmin())
	assert.False(t, (*Session)(nil).IsAdmin())
}

func TestLoginAndProfileRequests(t *testing.T) {
	req := &LoginRequest{Email: " Admin@Lifenjoy.com ", Password: "1234"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "admin@lifenjoy.com", req.Email)
	assert.Error(t, (&LoginRequest{Email: "nope", Password: "1"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "a@b.com"}).Validate())

	assert.Error(t, (&UpdateProfileRequest{}).Validate())
	assert.Error(t, (&UpdateProfileRequest{Name: strPtr("<b></b>")}).Validate())
	assert.Error(t, (&UpdateProfileRequest{Password: strPtr("")}).Validate())
	p := &UpdateProfileRequest{Name: strPtr(" 홍길동 ")}
	require.NoError(t, p.Validate())
	assert.Equal(t, "홍길동", *p.Name)
}

func TestFetchProductInfoRequest_Validate(t *testing.T) {
	req := &FetchProductInfoRequest{ModelName: "  S833MC85Q "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "S833MC85Q", req.ModelName)
	assert.Error(t, (&FetchProductInfoRequest{ModelName: " "}).Validate())
}
