package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/app"
	"team-quiz-service/internal/config"
	"team-quiz-service/internal/domain"
	"team-quiz-service/internal/infra/memory"
	mongostore "team-quiz-service/internal/infra/mongo"
	pgstore "team-quiz-service/internal/infra/postgres"
	redisstore "team-quiz-service/internal/infra/redis"
)

// backend bundles the storage adapters selected by store.driver.
type backend struct {
	sessions app.SessionRepository
	windows  app.WindowRepository
	catalog  app.Catalog
	closers  []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	retries := cfg.Engine.MaxRetries

	switch cfg.Store.Driver {
	case config.DriverMemory:
		loader, err := fileOrSampleLoader(cfg)
		if err != nil {
			return nil, err
		}
		b.sessions = memory.NewSessionStore()
		b.windows = memory.NewWindowStore()
		b.catalog = memory.NewCatalog(loader, catalogTTL)

	case config.DriverRedis:
		client, err := openRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		loader, err := fileOrSampleLoader(cfg)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.sessions = redisstore.NewSessionStore(client, retries)
		b.windows = redisstore.NewWindowStore(client, retries)
		b.catalog = redisstore.NewCatalog(client, loader, catalogTTL)

	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		db := openBunDB(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		b.sessions = pgstore.NewSessionStore(db, retries)
		b.windows = pgstore.NewWindowStore(db, retries)
		b.catalog = memory.NewCatalog(pgstore.NewQuestionLoader(pool), catalogTTL)

	case config.DriverMongo:
		if cfg.Mongo.URI == "" {
			return nil, fmt.Errorf("mongo uri not configured")
		}
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		db := client.Database(cfg.Mongo.Database)
		sessions := mongostore.NewSessionStore(db, retries)
		if err := sessions.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("create session indexes")
		}
		b.sessions = sessions
		b.windows = mongostore.NewWindowStore(db, retries)
		b.catalog = memory.NewCatalog(mongostore.NewQuestionStore(db), catalogTTL)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	log.Info().Str("driver", cfg.Store.Driver).Msg("storage backend ready")
	return b, nil
}

func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis addr not configured")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func fileOrSampleLoader(cfg config.Config) (*memory.StaticQuestionLoader, error) {
	if cfg.Catalog.File == "" {
		log.Warn().Msg("catalog.file not set, serving the built-in sample questions")
		return memory.NewStaticQuestionLoader(sampleQuestions()), nil
	}
	questions, err := config.LoadQuestions(cfg.Catalog.File)
	if err != nil {
		return nil, err
	}
	return memory.NewStaticQuestionLoader(questions), nil
}

// sampleQuestions provides a minimal question set; point catalog.file at a real one in production.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            "q1",
			Text:          "What is the capital of France?",
			Difficulty:    domain.DifficultyEasy,
			Category:      "Geography",
			CorrectAnswer: "Paris",
			MaxAttempts:   2,
			Hints:         []string{"It is on the Seine."},
		},
		{
			ID:            "q2",
			Text:          "Which data structure gives O(1) average lookup by key?",
			Difficulty:    domain.DifficultyMedium,
			Category:      "Computer Science",
			CorrectAnswer: "hash map",
			MaxAttempts:   3,
			Hints:         []string{"Think buckets.", "Go calls it a map."},
		},
		{
			ID:            "q3",
			Text:          "What is the smallest prime greater than 100?",
			Difficulty:    domain.DifficultyHard,
			Category:      "Math",
			CorrectAnswer: "101",
			MaxAttempts:   3,
			Hints:         []string{"Very close to 100.", "It is odd.", "Check 101."},
		},
	}
}
