package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"team-quiz-service/internal/app"
	"team-quiz-service/internal/domain"
	"team-quiz-service/internal/infra/memory"
	mongostore "team-quiz-service/internal/infra/mongo"
	pgstore "team-quiz-service/internal/infra/postgres"
	pgmigrations "team-quiz-service/internal/infra/postgres/migrations"
	redisstore "team-quiz-service/internal/infra/redis"
)

func TestPostgresBackendEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, cleanup := startPostgres(t, ctx)
	defer cleanup()

	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgURL))), pgdialect.New())
	defer db.Close()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewQuestionLoader(pool)
	if err := loader.SaveQuestions(ctx, sampleQuestions()); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	service := app.NewQuizService(
		pgstore.NewSessionStore(db, 3),
		pgstore.NewWindowStore(db, 3),
		memory.NewCatalog(loader, time.Minute),
	)
	exerciseService(t, ctx, service)
}

func TestMongoBackendEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	uri, cleanup := startMongo(t, ctx)
	defer cleanup()

	client, err := mongostore.Connect(ctx, uri)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer client.Disconnect(ctx)
	db := client.Database("team_quiz_test")

	questions := mongostore.NewQuestionStore(db)
	if err := questions.SaveQuestions(ctx, sampleQuestions()); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	sessions := mongostore.NewSessionStore(db, 3)
	if err := sessions.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	service := app.NewQuizService(sessions, mongostore.NewWindowStore(db, 3), memory.NewCatalog(questions, time.Minute))
	exerciseService(t, ctx, service)
}

func TestRedisBackendEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, cleanup := startRedis(t, ctx)
	defer cleanup()

	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	service := app.NewQuizService(
		redisstore.NewSessionStore(client, 3),
		redisstore.NewWindowStore(client, 3),
		redisstore.NewCatalog(client, memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute),
	)
	exerciseService(t, ctx, service)
}

// exerciseService drives the same scenario against any backend.
func exerciseService(t *testing.T, ctx context.Context, service *app.QuizService) {
	t.Helper()

	live := true
	if _, err := service.SetWindow(ctx, domain.WindowUpdate{IsLive: &live}); err != nil {
		t.Fatalf("set window: %v", err)
	}
	for _, team := range []string{"alpha", "bravo"} {
		if _, err := service.Start(ctx, team); err != nil {
			t.Fatalf("start %s: %v", team, err)
		}
	}

	res, err := service.Attempt(ctx, "alpha", "q1", "paris")
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if !res.Correct || res.Score != 25 {
		t.Fatalf("unexpected attempt result %+v", res)
	}

	// Optimistic stores may surface a conflict after exhausting retries, but
	// never a double award.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Attempt(ctx, "bravo", "q2", "4")
			if err != nil && !errors.Is(err, domain.ErrAlreadyCorrect) && !errors.Is(err, domain.ErrConcurrentUpdate) {
				t.Errorf("unexpected concurrent attempt error: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := service.RevealHint(ctx, "alpha", "q2", 0); err != nil {
		t.Fatalf("hint: %v", err)
	}
	if _, err := service.Submit(ctx, "alpha"); err != nil {
		t.Fatalf("submit alpha: %v", err)
	}
	if _, err := service.Submit(ctx, "bravo"); err != nil {
		t.Fatalf("submit bravo: %v", err)
	}
	if _, err := service.Attempt(ctx, "alpha", "q2", "4"); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}

	rankings, err := service.ListSubmittedRankings(ctx)
	if err != nil {
		t.Fatalf("rankings: %v", err)
	}
	if len(rankings) != 2 || rankings[0].TeamID != "bravo" || rankings[0].Score != 50 || rankings[1].Score != 20 {
		t.Fatalf("unexpected rankings %+v", rankings)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	host, port, terminate := startContainer(t, ctx, req, "5432/tcp")
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port)
	return dsn, terminate
}

func startMongo(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	host, port, terminate := startContainer(t, ctx, req, "27017/tcp")
	return fmt.Sprintf("mongodb://%s:%s", host, port), terminate
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	host, port, terminate := startContainer(t, ctx, req, "6379/tcp")
	return fmt.Sprintf("redis://%s:%s", host, port), terminate
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, exposed string) (string, string, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s host: %v", req.Image, err)
	}
	port, err := container.MappedPort(ctx, nat.Port(exposed))
	if err != nil {
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return host, port.Port(), func() {
		_ = container.Terminate(ctx)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Text: "Capital of France?", Difficulty: domain.DifficultyEasy, CorrectAnswer: "Paris", MaxAttempts: 2},
		{ID: "q2", Text: "What is 2 + 2?", Difficulty: domain.DifficultyMedium, CorrectAnswer: "4", MaxAttempts: 3, Hints: []string{"even", "small"}},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
