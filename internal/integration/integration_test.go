package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	pgstore "quiz-session-service/internal/infra/postgres"
	pgmigrations "quiz-session-service/internal/infra/postgres/migrations"
	infraredis "quiz-session-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestSessionLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestionSet(t, ctx, pgURL, domain.TierMedium, sampleQuestions())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	source := infraredis.NewQuestionCache(redisClient, pgstore.NewQuestionLoader(pool), 5*time.Minute)
	store := infraredis.NewSnapshotStore(redisClient, "client-1", 5*time.Minute)
	profiles := pgstore.NewProfileStore(pool)

	controller := app.NewController(source, store, profiles, "u1")
	if resumed, err := controller.Start(ctx, domain.TierMedium); err != nil || resumed {
		t.Fatalf("start: resumed=%v err=%v", resumed, err)
	}

	// Answer Q1 correctly, then drop the controller mid-session.
	if feedback, err := controller.Answer(ctx, 1); err != nil || !feedback.Correct {
		t.Fatalf("answer q1: %+v err=%v", feedback, err)
	}
	if result, err := controller.Advance(ctx); err != nil || result != nil {
		t.Fatalf("advance q1: %+v err=%v", result, err)
	}
	controller.Abandon()

	// A new controller for the same client resumes from Redis.
	resumedController := app.NewController(source, store, profiles, "u1")
	resumed, err := resumedController.Start(ctx, domain.TierMedium)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if !resumed {
		t.Fatalf("expected session resumed from redis snapshot")
	}
	if score, _ := resumedController.Score(); score != 1 {
		t.Fatalf("expected recomputed score 1 after resume, got %d", score)
	}

	// Answer Q2 wrong and complete.
	if feedback, err := resumedController.Answer(ctx, 2); err != nil || feedback.Correct {
		t.Fatalf("answer q2: %+v err=%v", feedback, err)
	}
	result, err := resumedController.Advance(ctx)
	if err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if result == nil || result.Score != 1 || result.Total != 2 {
		t.Fatalf("expected result 1/2, got %+v", result)
	}

	if _, ok, _ := store.Get(ctx); ok {
		t.Fatalf("snapshot must be cleared on completion")
	}

	stats, err := profiles.ReadStats(ctx, "u1")
	if err != nil {
		t.Fatalf("read stats: %v", err)
	}
	if stats.TotalGames != 1 || stats.TotalScore != 1 || stats.AverageScore != 1 {
		t.Fatalf("expected aggregated stats {1 1 1}, got %+v", stats)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestionSet(t *testing.T, ctx context.Context, dsn string, tier domain.Tier, questions []domain.Question) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal questions: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_sets (tier, data) VALUES (?, ?::jsonb) ON CONFLICT (tier) DO UPDATE SET data=EXCLUDED.data`, string(tier), string(data)); err != nil {
		t.Fatalf("insert question set: %v", err)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:           "q1",
			Tier:         domain.TierMedium,
			Prompt:       "What is 2 + 2?",
			Options:      []string{"3", "4", "5"},
			CorrectIndex: 1,
			Explanation:  "2 + 2 = 4.",
		},
		{
			ID:           "q2",
			Tier:         domain.TierMedium,
			Prompt:       "What is 3 * 3?",
			Options:      []string{"9", "6", "12"},
			CorrectIndex: 0,
			Explanation:  "3 * 3 = 9.",
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
