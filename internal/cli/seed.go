package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"team-quiz-service/internal/config"
	"team-quiz-service/internal/domain"
	mongostore "team-quiz-service/internal/infra/mongo"
	pgstore "team-quiz-service/internal/infra/postgres"
	redisstore "team-quiz-service/internal/infra/redis"
)

// NewSeedCmd loads a question file into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert questions from a YAML or JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "question file (defaults to catalog.file)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if file == "" {
		file = cfg.Catalog.File
	}
	if file == "" {
		return fmt.Errorf("no question file given")
	}
	questions, err := config.LoadQuestions(file)
	if err != nil {
		return err
	}

	if err := saveQuestions(ctx, cfg, questions); err != nil {
		return err
	}
	log.Info().Int("questions", len(questions)).Str("driver", cfg.Store.Driver).Msg("questions seeded")

	// Drop the shared cache so running servers pick up the new set.
	if cfg.Redis.Addr != "" {
		client, err := openRedis(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("skip catalog cache invalidation")
			return nil
		}
		defer client.Close()
		if err := redisstore.NewCatalog(client, nil, 0).Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("invalidate catalog cache")
		}
	}
	return nil
}

func saveQuestions(ctx context.Context, cfg config.Config, questions []domain.Question) error {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		return pgstore.NewQuestionLoader(pool).SaveQuestions(ctx, questions)

	case config.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		return mongostore.NewQuestionStore(client.Database(cfg.Mongo.Database)).SaveQuestions(ctx, questions)

	default:
		return fmt.Errorf("seed needs a postgres or mongo store, got %q; memory and redis read catalog.file directly", cfg.Store.Driver)
	}
}
