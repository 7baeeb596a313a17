package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/config"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
	pgstore "quiz-session-service/internal/infra/postgres"
	redisstore "quiz-session-service/internal/infra/redis"
	"quiz-session-service/internal/infra/trivia"
	transport "quiz-session-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	snapshotTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Question loader precedence: Postgres, then the remote trivia API,
	// then the built-in sample sets.
	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
	} else if cfg.Trivia.BaseURL != "" {
		loader = trivia.NewClient(cfg.Trivia.BaseURL)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var source app.QuestionSource
	if redisClient != nil {
		source = redisstore.NewQuestionCache(redisClient, loader, questionTTL)
	} else {
		source = memory.NewQuestionCache(loader, questionTTL)
	}

	var newSnapshotStore func(clientID string) app.SnapshotStore
	if redisClient != nil {
		newSnapshotStore = func(clientID string) app.SnapshotStore {
			return redisstore.NewSnapshotStore(redisClient, clientID, snapshotTTL)
		}
	} else {
		slots := memory.NewSnapshotStores()
		newSnapshotStore = func(clientID string) app.SnapshotStore {
			return slots.ForClient(clientID)
		}
	}

	var profiles app.ProfileStore
	if pool != nil {
		profiles = pgstore.NewProfileStore(pool)
	} else {
		profiles = memory.NewProfileStore()
	}

	wsHandler := transport.NewWSHandler(func(clientID, userID string) *app.Controller {
		return app.NewController(source, newSnapshotStore(clientID), profiles, userID)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides a minimal per-tier question pool; swap the
// loader for the Postgres- or API-backed one in production.
func sampleQuestionSets() map[domain.Tier][]domain.Question {
	return map[domain.Tier][]domain.Question{
		domain.TierEasy: {
			{
				ID:           "easy-1",
				Tier:         domain.TierEasy,
				Prompt:       "What is 2 + 2?",
				Options:      []string{"3", "4", "5"},
				CorrectIndex: 1,
				Explanation:  "2 + 2 = 4.",
			},
			{
				ID:           "easy-2",
				Tier:         domain.TierEasy,
				Prompt:       "Which planet is closest to the sun?",
				Options:      []string{"Venus", "Earth", "Mercury"},
				CorrectIndex: 2,
				Explanation:  "Mercury orbits closest to the sun.",
			},
		},
		domain.TierMedium: {
			{
				ID:           "medium-1",
				Tier:         domain.TierMedium,
				Prompt:       "What is the square root of 144?",
				Options:      []string{"10", "11", "12", "14"},
				CorrectIndex: 2,
				Explanation:  "12 * 12 = 144.",
			},
			{
				ID:           "medium-2",
				Tier:         domain.TierMedium,
				Prompt:       "Which element has the symbol Fe?",
				Options:      []string{"Fluorine", "Iron", "Lead", "Tin"},
				CorrectIndex: 1,
				Explanation:  "Fe comes from the Latin ferrum.",
			},
		},
		domain.TierHard: {
			{
				ID:           "hard-1",
				Tier:         domain.TierHard,
				Prompt:       "In what year was the first transatlantic telegraph cable completed?",
				Options:      []string{"1844", "1858", "1876", "1901"},
				CorrectIndex: 1,
				Explanation:  "The 1858 cable worked for about three weeks.",
			},
			{
				ID:           "hard-2",
				Tier:         domain.TierHard,
				Prompt:       "Which sorting algorithm has the best worst-case time complexity?",
				Options:      []string{"Quicksort", "Bubble sort", "Merge sort", "Insertion sort"},
				CorrectIndex: 2,
				Explanation:  "Merge sort is O(n log n) in the worst case.",
			},
		},
	}
}
