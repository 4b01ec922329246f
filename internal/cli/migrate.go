package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lifenjoy/campaigns/config"
	"github.com/lifenjoy/campaigns/internal/database"
	"github.com/lifenjoy/campaigns/internal/repository"
	"github.com/lifenjoy/campaigns/internal/service"
	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

var loadConfig = config.Load

var openDB = func(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", database.GetSystemDSN(&cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite legacy campaign documents in the section shape",
		Long: fmt.Sprintf(`Rewrite every stored campaign below schema version %d in the section
shape. Campaigns edited while the migration runs are skipped and can be
migrated by running the command again.`, campaign_blocks.SchemaVersion),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := repository.NewCampaignRepository(db)
			out := cmd.OutOrStdout()

			if dryRun {
				campaigns, err := repo.ListBelowSchema(cmd.Context(), campaign_blocks.SchemaVersion)
				if err != nil {
					return err
				}
				for _, c := range campaigns {
					fmt.Fprintf(out, "%d\t%s\tschema %d\n", c.ID, c.Title, c.SchemaVersion)
				}
				fmt.Fprintf(out, "%d campaign(s) to migrate\n", len(campaigns))
				return nil
			}

			campaignService := service.NewCampaignService(service.CampaignServiceConfig{
				Repository: repo,
				Renderer:   campaign_blocks.NewRenderer(nil),
				Logger:     logger.NewLoggerWithLevel(cfg.LogLevel),
			})
			migrated, err := campaignService.MigrateLegacy(cmd.Context())
			fmt.Fprintf(out, "Migrated %d campaign(s)\n", migrated)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the campaigns that would be migrated")
	return cmd
}
