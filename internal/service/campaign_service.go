package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
	"github.com/lifenjoy/campaigns/pkg/logger"
	"github.com/lifenjoy/campaigns/pkg/tracing"
)

const ogImageResolveTimeout = 3 * time.Second

type CampaignService struct {
	repo     domain.CampaignRepository
	renderer *campaign_blocks.Renderer
	resolver campaign_blocks.URLResolver
	logger   logger.Logger
	newID    campaign_blocks.IDGenerator
}

type CampaignServiceConfig struct {
	Repository domain.CampaignRepository
	Renderer   *campaign_blocks.Renderer
	// Resolver turns a stored og image reference into a URL. Optional.
	Resolver campaign_blocks.URLResolver
	Logger   logger.Logger
	// IDGenerator is used for sections and blocks created by edits. Optional.
	IDGenerator campaign_blocks.IDGenerator
}

var _ domain.CampaignService = (*CampaignService)(nil)

func NewCampaignService(cfg CampaignServiceConfig) *CampaignService {
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = campaign_blocks.NewRenderer(cfg.Resolver)
	}
	return &CampaignService{
		repo:     cfg.Repository,
		renderer: renderer,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
		newID:    cfg.IDGenerator,
	}
}

func (s *CampaignService) List(ctx context.Context, session *domain.Session) ([]*domain.Campaign, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}
	campaigns, err := tracing.Traced(ctx, "CampaignService", "List", s.repo.List)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to list campaigns")
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *CampaignService) Get(ctx context.Context, session *domain.Session, id int64) (*domain.Campaign, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}
	return tracing.Traced(ctx, "CampaignService", "Get", func(ctx context.Context) (*domain.Campaign, error) {
		return s.repo.GetByID(ctx, id)
	})
}

func (s *CampaignService) Create(ctx context.Context, session *domain.Session, req *domain.CreateCampaignRequest) (*domain.Campaign, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "CampaignService", "Create")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	campaign, err := req.Validate()
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if err = s.ensureSlugAvailable(ctx, campaign.Slug, 0); err != nil {
		return nil, err
	}
	if campaign_blocks.IsLegacy(campaign.Blocks) {
		campaign.SchemaVersion = 1
	}

	if err = s.repo.Create(ctx, campaign); err != nil {
		if !errors.Is(err, domain.ErrSlugTaken) {
			s.logger.WithField("error", err.Error()).Error("Failed to create campaign")
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"campaign_id": campaign.ID,
		"user_id":     session.UserID,
	}).Info("Campaign created")
	return campaign, nil
}

// ensureSlugAvailable fails with ErrSlugTaken when another campaign owns slug.
func (s *CampaignService) ensureSlugAvailable(ctx context.Context, slug string, excludeID int64) error {
	if slug == "" {
		return nil
	}
	exists, err := s.repo.SlugExists(ctx, slug, excludeID)
	if err != nil {
		s.logger.WithField("slug", slug).WithField("error", err.Error()).Error("Failed to check slug")
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return domain.ErrSlugTaken
	}
	return nil
}

func (s *CampaignService) Update(ctx context.Context, session *domain.Session, req *domain.UpdateCampaignRequest) (*domain.Campaign, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "CampaignService", "Update")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	patch, err := req.Validate()
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if patch.Slug != nil {
		if err = s.ensureSlugAvailable(ctx, *patch.Slug, req.ID); err != nil {
			return nil, err
		}
	}
	if patch.Blocks != nil {
		version := campaign_blocks.SchemaVersion
		if campaign_blocks.IsLegacy(patch.Blocks) {
			version = 1
		}
		patch.SchemaVersion = &version
	}

	campaign, err := s.repo.Update(ctx, req.ID, patch, req.BaseVersion)
	if err != nil {
		s.logUpdateFailure(req.ID, err)
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignService) logUpdateFailure(id int64, err error) {
	var conflict *domain.ErrVersionConflict
	switch {
	case errors.As(err, &conflict):
		s.logger.WithField("campaign_id", id).WithField("error", err.Error()).Warn("Rejected stale campaign write")
	case domain.IsNotFound(err), errors.Is(err, domain.ErrSlugTaken):
	default:
		s.logger.WithField("campaign_id", id).WithField("error", err.Error()).Error("Failed to update campaign")
	}
}

func (s *CampaignService) Delete(ctx context.Context, session *domain.Session, id int64) error {
	if err := domain.RequireSession(session); err != nil {
		return err
	}
	_, err := tracing.Traced(ctx, "CampaignService", "Delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Delete(ctx, id)
	})
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.WithField("campaign_id", id).WithField("error", err.Error()).Error("Failed to delete campaign")
		}
		return err
	}
	s.logger.WithField("campaign_id", id).WithField("user_id", session.UserID).Info("Campaign deleted")
	return nil
}

// Save stores an editor document. The document is normalized first, so the
// stored shape is always the section shape, and the campaign is published.
func (s *CampaignService) Save(ctx context.Context, session *domain.Session, req *domain.SaveCampaignRequest) (*domain.Campaign, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	blocks, err := campaign_blocks.Marshal(campaign_blocks.Normalize(req.Blocks))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return s.persist(ctx, req.ID, campaign_blocks.SaveRequest{
		Title:  req.Title,
		Blocks: blocks,
		Status: campaign_blocks.PublishedStatus,
	}, req.BaseVersion)
}

func (s *CampaignService) persist(ctx context.Context, id int64, save campaign_blocks.SaveRequest, baseVersion *int64) (*domain.Campaign, error) {
	ctx, span := tracing.StartSpan(ctx, "CampaignService", "Save")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	title := save.Title
	status := domain.CampaignStatus(save.Status)
	schemaVersion := campaign_blocks.SchemaVersion
	patch := domain.CampaignPatch{
		Title:         &title,
		Status:        &status,
		Blocks:        save.Blocks,
		SchemaVersion: &schemaVersion,
	}

	campaign, err := s.repo.Update(ctx, id, patch, baseVersion)
	if err != nil {
		s.logUpdateFailure(id, err)
		return nil, err
	}
	return campaign, nil
}

// Edit replays editor operations against the stored document. The whole
// batch is rejected when one operation fails.
func (s *CampaignService) Edit(ctx context.Context, session *domain.Session, req *domain.EditCampaignRequest) (*domain.EditCampaignResponse, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	ctx, span := tracing.StartSpan(ctx, "CampaignService", "Edit")
	var err error
	defer func() { tracing.EndSpan(span, err) }()
	tracing.AddAttribute(ctx, "campaign.id", req.ID)
	tracing.AddAttribute(ctx, "campaign.operations", len(req.Operations))

	campaign, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.BaseVersion != nil && *req.BaseVersion != campaign.Version {
		err = &domain.ErrVersionConflict{CampaignID: campaign.ID, Expected: *req.BaseVersion, Actual: campaign.Version}
		return nil, err
	}

	editor := s.newEditor()
	editor.Load(campaign.Blocks)
	editor.SetTitle(campaign.Title)
	editor.MarkSaved()

	if err = editor.ApplyOperations(req.Operations); err != nil {
		return nil, err
	}

	resp := &domain.EditCampaignResponse{
		Campaign:  campaign,
		Sections:  editor.Snapshot(),
		Selection: editor.Selection(),
	}
	if !req.Save || !editor.IsDirty() {
		return resp, nil
	}

	save, err := editor.Save()
	if err != nil {
		return nil, err
	}
	loaded := campaign.Version
	updated, err := s.persist(ctx, campaign.ID, save, &loaded)
	if err != nil {
		return nil, err
	}
	editor.MarkSaved()
	resp.Campaign = updated
	resp.Saved = true
	return resp, nil
}

func (s *CampaignService) newEditor() *campaign_blocks.Editor {
	return campaign_blocks.NewEditor(campaign_blocks.WithIDGenerator(s.newID))
}

// Preview renders a document in editor mode with the requested selection.
func (s *CampaignService) Preview(ctx context.Context, session *domain.Session, req *domain.PreviewCampaignRequest) (string, error) {
	if err := domain.RequireSession(session); err != nil {
		return "", err
	}
	if err := req.Validate(); err != nil {
		return "", domain.NewValidationError(err.Error())
	}

	ctx, span := tracing.StartSpan(ctx, "CampaignService", "Preview")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	blocks := req.Blocks
	if len(blocks) == 0 {
		var campaign *domain.Campaign
		if campaign, err = s.repo.GetByID(ctx, req.ID); err != nil {
			return "", err
		}
		blocks = campaign.Blocks
	}

	editor := s.newEditor()
	editor.Load(blocks)
	if req.Selection != nil {
		if err = editor.Select(*req.Selection); err != nil {
			return "", domain.NewValidationError(err.Error())
		}
	}

	started := time.Now()
	html := s.renderer.Render(ctx, editor.Snapshot(), campaign_blocks.EditorMode(editor.Selection()))
	tracing.RecordRender(ctx, "editor", time.Since(started))
	return html, nil
}

// GetPublicPage resolves key as a slug first and as a numeric id second,
// counts the view and renders the public document.
func (s *CampaignService) GetPublicPage(ctx context.Context, key string) (*domain.PublicCampaign, error) {
	ctx, span := tracing.StartSpan(ctx, "CampaignService", "GetPublicPage")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	campaign, err := s.lookupPublic(ctx, strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}

	if viewErr := s.repo.IncrementViewCount(ctx, campaign.ID); viewErr != nil {
		s.logger.WithField("campaign_id", campaign.ID).WithField("error", viewErr.Error()).Warn("Failed to count campaign view")
	} else {
		campaign.ViewCount++
	}
	tracing.RecordPageView(ctx)

	started := time.Now()
	body := s.renderer.Render(ctx, campaign.Sections(), campaign_blocks.PublicMode)
	tracing.RecordRender(ctx, "public", time.Since(started))

	return &domain.PublicCampaign{
		Campaign:    campaign,
		BodyHTML:    body,
		OgImageURL:  s.ogImageURL(ctx, campaign),
		Description: campaign.Description(),
	}, nil
}

func (s *CampaignService) lookupPublic(ctx context.Context, key string) (*domain.Campaign, error) {
	notFound := &domain.ErrCampaignNotFound{Key: key}
	if key == "" {
		return nil, notFound
	}

	campaign, err := s.repo.GetBySlug(ctx, key)
	if err == nil {
		return campaign, nil
	}
	if !domain.IsNotFound(err) {
		s.logger.WithField("key", key).WithField("error", err.Error()).Error("Failed to look up campaign by slug")
		return nil, err
	}

	id, parseErr := domain.ParseCampaignID(key)
	if parseErr != nil {
		return nil, notFound
	}
	campaign, err = s.repo.GetByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, notFound
		}
		return nil, err
	}
	return campaign, nil
}

// ogImageURL returns the social preview image: the og image, else the thumbnail.
// Unresolvable references yield no image.
func (s *CampaignService) ogImageURL(ctx context.Context, campaign *domain.Campaign) string {
	for _, candidate := range []string{campaign.OgImage, campaign.ThumbnailURL} {
		candidate = strings.TrimSpace(candidate)
		switch {
		case candidate == "":
			continue
		case campaign_blocks.IsDirectURL(candidate):
			return candidate
		case s.resolver != nil:
			rctx, cancel := context.WithTimeout(ctx, ogImageResolveTimeout)
			u, err := s.resolver.ResolveURL(rctx, candidate)
			cancel()
			if err == nil && u != "" {
				return u
			}
			if err != nil {
				s.logger.WithField("campaign_id", campaign.ID).WithField("error", err.Error()).Warn("Failed to resolve og image")
			}
		}
	}
	return ""
}

// MigrateLegacy rewrites documents stored below the current schema version
// in the section shape. Campaigns changed concurrently are skipped.
func (s *CampaignService) MigrateLegacy(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "CampaignService", "MigrateLegacy")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	campaigns, err := s.repo.ListBelowSchema(ctx, campaign_blocks.SchemaVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to list legacy campaigns: %w", err)
	}

	migrated := 0
	for _, campaign := range campaigns {
		var blocks []byte
		if blocks, err = campaign_blocks.Marshal(campaign.Sections()); err != nil {
			return migrated, fmt.Errorf("failed to serialize campaign %d: %w", campaign.ID, err)
		}
		schemaVersion := campaign_blocks.SchemaVersion
		version := campaign.Version
		_, err = s.repo.Update(ctx, campaign.ID, domain.CampaignPatch{
			Blocks:        blocks,
			SchemaVersion: &schemaVersion,
		}, &version)

		var conflict *domain.ErrVersionConflict
		switch {
		case err == nil:
			migrated++
		case errors.As(err, &conflict), domain.IsNotFound(err):
			s.logger.WithField("campaign_id", campaign.ID).WithField("error", err.Error()).Warn("Skipped campaign during migration")
			err = nil
		default:
			s.logger.WithField("campaign_id", campaign.ID).WithField("error", err.Error()).Error("Failed to migrate campaign")
			return migrated, fmt.Errorf("failed to migrate campaign %d: %w", campaign.ID, err)
		}
	}

	s.logger.WithField("migrated", migrated).WithField("candidates", len(campaigns)).Info("Legacy campaign migration finished")
	return migrated, nil
}
