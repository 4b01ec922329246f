package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/lifenjoy/campaigns/internal/domain"
)

type campaignRepository struct {
	db   *sql.DB
	psql sq.StatementBuilderType
}

// NewCampaignRepository creates a new PostgreSQL campaign repository
func NewCampaignRepository(db *sql.DB) domain.CampaignRepository {
	return &campaignRepository{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var campaignColumnList = strings.Join(domain.CampaignColumns, ", ")

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *campaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	now := time.Now().UTC()
	blocks := []byte(campaign.Blocks)
	if len(blocks) == 0 {
		blocks = []byte("[]")
	}

	query, args, err := r.psql.Insert("campaigns").
		Columns("title", "status", "blocks", "slug", "og_image", "og_description", "thumbnail_url",
			"view_count", "version", "schema_version", "created_at", "updated_at").
		Values(campaign.Title, string(campaign.Status), blocks, nullable(campaign.Slug),
			nullable(campaign.OgImage), nullable(campaign.OgDescription), nullable(campaign.ThumbnailURL),
			0, 1, campaign.SchemaVersion, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&campaign.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	campaign.Blocks = blocks
	campaign.ViewCount = 0
	campaign.Version = 1
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	return nil
}

func (r *campaignRepository) getOne(ctx context.Context, key string, where sq.Eq) (*domain.Campaign, error) {
	query, args, err := r.psql.Select(domain.CampaignColumns...).From("campaigns").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	campaign, err := domain.ScanCampaign(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrCampaignNotFound{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id int64) (*domain.Campaign, error) {
	return r.getOne(ctx, strconv.FormatInt(id, 10), sq.Eq{"id": id})
}

func (r *campaignRepository) GetBySlug(ctx context.Context, slug string) (*domain.Campaign, error) {
	return r.getOne(ctx, slug, sq.Eq{"slug": slug})
}

func (r *campaignRepository) list(ctx context.Context, builder sq.SelectBuilder) ([]*domain.Campaign, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*domain.Campaign{}
	for rows.Next() {
		campaign, err := domain.ScanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign rows: %w", err)
	}
	return campaigns, nil
}

func (r *campaignRepository) List(ctx context.Context) ([]*domain.Campaign, error) {
	return r.list(ctx, r.psql.Select(domain.CampaignColumns...).From("campaigns").OrderBy("created_at DESC", "id DESC"))
}

func (r *campaignRepository) ListBelowSchema(ctx context.Context, schemaVersion int) ([]*domain.Campaign, error) {
	return r.list(ctx, r.psql.Select(domain.CampaignColumns...).From("campaigns").
		Where(sq.Lt{"schema_version": schemaVersion}).OrderBy("id"))
}

func (r *campaignRepository) Update(ctx context.Context, id int64, patch domain.CampaignPatch, baseVersion *int64) (*domain.Campaign, error) {
	set := map[string]interface{}{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Blocks != nil {
		set["blocks"] = []byte(patch.Blocks)
	}
	if patch.Slug != nil {
		set["slug"] = nullable(*patch.Slug)
	}
	if patch.OgImage != nil {
		set["og_image"] = nullable(*patch.OgImage)
	}
	if patch.OgDescription != nil {
		set["og_description"] = nullable(*patch.OgDescription)
	}
	if patch.ThumbnailURL != nil {
		set["thumbnail_url"] = nullable(*patch.ThumbnailURL)
	}
	if patch.SchemaVersion != nil {
		set["schema_version"] = *patch.SchemaVersion
	}

	where := sq.Eq{"id": id}
	if baseVersion != nil {
		where["version"] = *baseVersion
	}

	query, args, err := r.psql.Update("campaigns").
		SetMap(set).
		Set("version", sq.Expr("version + 1")).
		Where(where).
		Suffix("RETURNING " + campaignColumnList).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	campaign, err := domain.ScanCampaign(r.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return campaign, nil
	}
	if isUniqueViolation(err) {
		return nil, domain.ErrSlugTaken
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	// nothing matched: either the row is gone or the version moved on
	var current int64
	err = r.db.QueryRowContext(ctx, "SELECT version FROM campaigns WHERE id = $1", id).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrCampaignNotFound{Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign version: %w", err)
	}
	expected := int64(0)
	if baseVersion != nil {
		expected = *baseVersion
	}
	return nil, &domain.ErrVersionConflict{CampaignID: id, Expected: expected, Actual: current}
}

func (r *campaignRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM campaigns WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ErrCampaignNotFound{Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (r *campaignRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	query, args, err := r.psql.Select("1").From("campaigns").
		Where(sq.Eq{"slug": slug}).
		Where(sq.NotEq{"id": excludeID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build slug query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return true, nil
}

// IncrementViewCount leaves version and updated_at untouched.
func (r *campaignRepository) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE campaigns SET view_count = view_count + 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}
