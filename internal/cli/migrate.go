package cli

import (
	"context"
	"fmt"

	"english-mcq-service/internal/config"
	"english-mcq-service/internal/infra/memory"
	"english-mcq-service/internal/infra/sqlstore"
	"english-mcq-service/internal/logger"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), *configPath, func(ctx context.Context, db *bun.DB, log *logger.Logger) error {
				return runMigrations(ctx, db, log)
			})
		},
	}
}

// NewSeedCmd loads the built-in question bank into the database.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the built-in question bank, skipping questions already present",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), *configPath, func(ctx context.Context, db *bun.DB, log *logger.Logger) error {
				if err := runMigrations(ctx, db, log); err != nil {
					return err
				}
				questions := memory.BankQuestions(memory.DefaultBank())
				if err := sqlstore.NewStore(db).SaveQuestions(ctx, questions); err != nil {
					return err
				}
				log.Info("question bank seeded", "questions", len(questions))
				return nil
			})
		},
	}
}

func withDatabase(ctx context.Context, configPath string, fn func(ctx context.Context, db *bun.DB, log *logger.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Database.Driver == "" {
		return fmt.Errorf("database driver not configured")
	}
	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db, log)
}

func runMigrations(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	group, err := sqlstore.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.Info("migrations applied", "group", group.String())
	return nil
}
