package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/microcosm-cc/bluemonday"

	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
)

//go:generate mockgen -destination mocks/mock_campaign_repository.go -package mocks github.com/lifenjoy/campaigns/internal/domain CampaignRepository
//go:generate mockgen -destination mocks/mock_campaign_service.go -package mocks github.com/lifenjoy/campaigns/internal/domain CampaignService

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusPublished CampaignStatus = "published"
)

// DefaultOgDescription is used for social previews when a campaign has none.
const DefaultOgDescription = "LG전자 가전구독 공식 캠페인"

// Campaign is a landing page. Blocks holds the stored document verbatim and
// is only interpreted through campaign_blocks.Normalize.
type Campaign struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Status        CampaignStatus  `json:"status"`
	Blocks        json.RawMessage `json:"blocks"`
	Slug          string          `json:"slug,omitempty"`
	OgImage       string          `json:"ogImage,omitempty"`
	OgDescription string          `json:"ogDescription,omitempty"`
	ThumbnailURL  string          `json:"thumbnailUrl,omitempty"`
	ViewCount     int64           `json:"viewCount"`
	Version       int64           `json:"version"`
	SchemaVersion int             `json:"schemaVersion"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Sections returns the normalized document.
func (c *Campaign) Sections() []campaign_blocks.Section {
	return campaign_blocks.Normalize(c.Blocks)
}

// Description returns the social preview description.
func (c *Campaign) Description() string {
	if strings.TrimSpace(c.OgDescription) == "" {
		return DefaultOgDescription
	}
	return c.OgDescription
}

// CampaignPatch lists the columns an update writes. Nil fields are left alone.
type CampaignPatch struct {
	Title         *string
	Status        *CampaignStatus
	Blocks        json.RawMessage
	Slug          *string
	OgImage       *string
	OgDescription *string
	ThumbnailURL  *string
	SchemaVersion *int
}

// IsEmpty reports whether the patch would write nothing.
func (p CampaignPatch) IsEmpty() bool {
	return p.Title == nil && p.Status == nil && p.Blocks == nil && p.Slug == nil &&
		p.OgImage == nil && p.OgDescription == nil && p.ThumbnailURL == nil && p.SchemaVersion == nil
}

// ScanCampaign scans the columns listed in CampaignColumns.
func ScanCampaign(scanner interface {
	Scan(dest ...interface{}) error
}) (*Campaign, error) {
	var (
		c             Campaign
		status        string
		blocks        []byte
		slug          *string
		ogImage       *string
		ogDescription *string
		thumbnail     *string
	)
	if err := scanner.Scan(
		&c.ID,
		&c.Title,
		&status,
		&blocks,
		&slug,
		&ogImage,
		&ogDescription,
		&thumbnail,
		&c.ViewCount,
		&c.Version,
		&c.SchemaVersion,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = CampaignStatus(status)
	if len(blocks) == 0 {
		blocks = []byte("[]")
	}
	c.Blocks = json.RawMessage(blocks)
	c.Slug = deref(slug)
	c.OgImage = deref(ogImage)
	c.OgDescription = deref(ogDescription)
	c.ThumbnailURL = deref(thumbnail)
	return &c, nil
}

// CampaignColumns is the column order expected by ScanCampaign.
var CampaignColumns = []string{
	"id", "title", "status", "blocks", "slug", "og_image", "og_description",
	"thumbnail_url", "view_count", "version", "schema_version", "created_at", "updated_at",
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var plainText = bluemonday.StrictPolicy()

// SanitizeText strips markup from user supplied plain text.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

func init() {
	govalidator.TagMap["slug"] = govalidator.Validator(func(str string) bool {
		return govalidator.Matches(str, `^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
	})
}

// CampaignRepository persists campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *Campaign) error
	GetByID(ctx context.Context, id int64) (*Campaign, error)
	GetBySlug(ctx context.Context, slug string) (*Campaign, error)
	// List returns all campaigns, newest first.
	List(ctx context.Context) ([]*Campaign, error)
	// Update applies patch and bumps the version. With a non-nil baseVersion the
	// write only happens when the stored version still matches.
	Update(ctx context.Context, id int64, patch CampaignPatch, baseVersion *int64) (*Campaign, error)
	Delete(ctx context.Context, id int64) error
	// SlugExists reports whether a campaign other than excludeID owns slug.
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	IncrementViewCount(ctx context.Context, id int64) error
	// ListBelowSchema returns campaigns stored with an older document schema.
	ListBelowSchema(ctx context.Context, schemaVersion int) ([]*Campaign, error)
}

// CampaignService is the admin and public surface over campaigns.
type CampaignService interface {
	List(ctx context.Context, session *Session) ([]*Campaign, error)
	Get(ctx context.Context, session *Session, id int64) (*Campaign, error)
	Create(ctx context.Context, session *Session, req *CreateCampaignRequest) (*Campaign, error)
	Update(ctx context.Context, session *Session, req *UpdateCampaignRequest) (*Campaign, error)
	Delete(ctx context.Context, session *Session, id int64) error
	Save(ctx context.Context, session *Session, req *SaveCampaignRequest) (*Campaign, error)
	Edit(ctx context.Context, session *Session, req *EditCampaignRequest) (*EditCampaignResponse, error)
	Preview(ctx context.Context, session *Session, req *PreviewCampaignRequest) (string, error)
	GetPublicPage(ctx context.Context, key string) (*PublicCampaign, error)
	MigrateLegacy(ctx context.Context) (int, error)
}

// PublicCampaign is what the public viewer needs to build a page.
type PublicCampaign struct {
	Campaign    *Campaign
	BodyHTML    string
	OgImageURL  string
	Description string
}

type CreateCampaignRequest struct {
	Title         string          `json:"title" valid:"required,stringlength(1|200)"`
	Blocks        json.RawMessage `json:"blocks,omitempty"`
	Status        CampaignStatus  `json:"status" valid:"optional,in(draft|published)"`
	Slug          string          `json:"slug,omitempty" valid:"optional,slug"`
	OgImage       string          `json:"ogImage,omitempty"`
	OgDescription string          `json:"ogDescription,omitempty" valid:"optional,stringlength(0|300)"`
}

// Validate checks the request and returns the campaign to insert.
func (r *CreateCampaignRequest) Validate() (*Campaign, error) {
	r.Title = SanitizeText(r.Title)
	r.OgDescription = SanitizeText(r.OgDescription)
	r.Slug = strings.TrimSpace(r.Slug)
	if r.Status == "" {
		r.Status = CampaignStatusDraft
	}
	if _, err := govalidator.ValidateStruct(r); err != nil {
		return nil, fmt.Errorf("invalid create campaign request: %w", err)
	}
	blocks := r.Blocks
	if len(blocks) == 0 || string(blocks) == "null" {
		blocks = json.RawMessage("[]")
	} else if !json.Valid(blocks) {
		return nil, fmt.Errorf("invalid create campaign request: blocks must be valid JSON")
	}
	return &Campaign{
		Title:         r.Title,
		Status:        r.Status,
		Blocks:        blocks,
		Slug:          r.Slug,
		OgImage:       r.OgImage,
		OgDescription: r.OgDescription,
		SchemaVersion: campaign_blocks.SchemaVersion,
	}, nil
}

type GetCampaignRequest struct {
	ID int64 `json:"id"`
}

func (r *GetCampaignRequest) FromURLParams(queryParams url.Values) error {
	id, err := ParseCampaignID(queryParams.Get("id"))
	if err != nil {
		return fmt.Errorf("invalid get campaign request: %w", err)
	}
	r.ID = id
	return nil
}

// ParseCampaignID parses a positive numeric campaign id.
func ParseCampaignID(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("id is required")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer")
	}
	return id, nil
}

// UpdateCampaignRequest is a partial update. Absent fields are left unchanged.
type UpdateCampaignRequest struct {
	ID            int64           `json:"id"`
	Title         *string         `json:"title,omitempty"`
	Blocks        json.RawMessage `json:"blocks,omitempty"`
	Status        *CampaignStatus `json:"status,omitempty"`
	ThumbnailURL  *string         `json:"thumbnailUrl,omitempty"`
	Slug          *string         `json:"slug,omitempty"`
	OgImage       *string         `json:"ogImage,omitempty"`
	OgDescription *string         `json:"ogDescription,omitempty"`
	BaseVersion   *int64          `json:"baseVersion,omitempty"`
}

func (r *UpdateCampaignRequest) Validate() (CampaignPatch, error) {
	var patch CampaignPatch
	if r.ID <= 0 {
		return patch, fmt.Errorf("invalid update campaign request: id is required")
	}
	if r.Title != nil {
		title := SanitizeText(*r.Title)
		if title == "" || len(title) > 200 {
			return patch, fmt.Errorf("invalid update campaign request: title length must be between 1 and 200")
		}
		patch.Title = &title
	}
	if r.Status != nil {
		if *r.Status != CampaignStatusDraft && *r.Status != CampaignStatusPublished {
			return patch, fmt.Errorf("invalid update campaign request: status must be draft or published")
		}
		patch.Status = r.Status
	}
	if r.Blocks != nil {
		if !json.Valid(r.Blocks) {
			return patch, fmt.Errorf("invalid update campaign request: blocks must be valid JSON")
		}
		patch.Blocks = r.Blocks
	}
	if r.Slug != nil {
		slug := strings.TrimSpace(*r.Slug)
		if slug != "" && !govalidator.Matches(slug, `^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`) {
			return patch, fmt.Errorf("invalid update campaign request: slug may only contain letters, digits, '-' and '_'")
		}
		patch.Slug = &slug
	}
	if r.OgDescription != nil {
		desc := SanitizeText(*r.OgDescription)
		if len(desc) > 300 {
			return patch, fmt.Errorf("invalid update campaign request: ogDescription is too long")
		}
		patch.OgDescription = &desc
	}
	patch.OgImage = r.OgImage
	patch.ThumbnailURL = r.ThumbnailURL
	if patch.IsEmpty() {
		return patch, fmt.Errorf("invalid update campaign request: nothing to update")
	}
	return patch, nil
}

// SaveCampaignRequest persists an editor document.
type SaveCampaignRequest struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Blocks      json.RawMessage `json:"blocks"`
	BaseVersion *int64          `json:"baseVersion,omitempty"`
}

func (r *SaveCampaignRequest) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("invalid save campaign request: id is required")
	}
	r.Title = SanitizeText(r.Title)
	if r.Title == "" {
		return fmt.Errorf("invalid save campaign request: title is required")
	}
	if len(r.Blocks) == 0 || !json.Valid(r.Blocks) {
		return fmt.Errorf("invalid save campaign request: blocks must be valid JSON")
	}
	return nil
}

// EditCampaignRequest applies editor operations to the stored document.
// With Save false the result is returned without being persisted.
type EditCampaignRequest struct {
	ID          int64                       `json:"id"`
	Operations  []campaign_blocks.Operation `json:"operations"`
	Save        bool                        `json:"save"`
	BaseVersion *int64                      `json:"baseVersion,omitempty"`
}

func (r *EditCampaignRequest) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("invalid edit campaign request: id is required")
	}
	if len(r.Operations) == 0 {
		return fmt.Errorf("invalid edit campaign request: operations are required")
	}
	return nil
}

type EditCampaignResponse struct {
	Campaign  *Campaign                 `json:"campaign"`
	Sections  []campaign_blocks.Section `json:"sections"`
	Selection campaign_blocks.Selection `json:"selection"`
	Saved     bool                      `json:"saved"`
}

// PreviewCampaignRequest renders a document in editor mode. Blocks, when set,
// replaces the stored document for the preview.
type PreviewCampaignRequest struct {
	ID        int64                      `json:"id"`
	Blocks    json.RawMessage            `json:"blocks,omitempty"`
	Selection *campaign_blocks.Selection `json:"selection,omitempty"`
}

func (r *PreviewCampaignRequest) Validate() error {
	if r.ID <= 0 && len(r.Blocks) == 0 {
		return fmt.Errorf("invalid preview campaign request: id or blocks is required")
	}
	return nil
}

type DeleteCampaignRequest struct {
	ID int64 `json:"id"`
}

func (r *DeleteCampaignRequest) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("invalid delete campaign request: id is required")
	}
	return nil
}
