package tracing

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	KeyMode    = tag.MustNewKey("mode")
	KeyOutcome = tag.MustNewKey("outcome")
)

// Outcomes recorded for storage reference resolution.
const (
	OutcomeHit     = "cache_hit"
	OutcomeSigned  = "signed"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

var (
	RenderLatency = stats.Float64("campaigns/render_latency", "Document render latency", stats.UnitMilliseconds)
	ResolveCount  = stats.Int64("campaigns/storage_resolves", "Storage reference resolutions", stats.UnitDimensionless)
	PageViews     = stats.Int64("campaigns/page_views", "Public campaign page views", stats.UnitDimensionless)
)

// CampaignViews aggregate the campaign measures.
var CampaignViews = []*view.View{
	{
		Name:        "campaigns/render_latency",
		Measure:     RenderLatency,
		Description: "Distribution of document render latency",
		TagKeys:     []tag.Key{KeyMode},
		Aggregation: view.Distribution(1, 5, 10, 25, 50, 100, 250, 500, 1000, 3000),
	},
	{
		Name:        "campaigns/storage_resolves",
		Measure:     ResolveCount,
		Description: "Storage reference resolutions by outcome",
		TagKeys:     []tag.Key{KeyOutcome},
		Aggregation: view.Count(),
	},
	{
		Name:        "campaigns/page_views",
		Measure:     PageViews,
		Description: "Public campaign page views",
		Aggregation: view.Sum(),
	},
}

// RecordRender records how long a render in mode took.
func RecordRender(ctx context.Context, mode string, elapsed time.Duration) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyMode, mode)},
		RenderLatency.M(float64(elapsed)/float64(time.Millisecond)))
}

// RecordResolve counts a storage resolution with its outcome.
func RecordResolve(ctx context.Context, outcome string) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyOutcome, outcome)}, ResolveCount.M(1))
}

// RecordPageView counts a served public page.
func RecordPageView(ctx context.Context) {
	stats.Record(ctx, PageViews.M(1))
}
