package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	pgstore "quiz-attempt-service/internal/infra/postgres"
	redisinfra "quiz-attempt-service/internal/infra/redis"
	sqlitestore "quiz-attempt-service/internal/infra/sqlite"
	transport "quiz-attempt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores groups the storage contracts one backend provides.
type stores struct {
	quizzes   app.QuizStore
	questions app.QuestionStore
	attempts  app.AttemptStore
	pieces    app.AnswerPieceStore
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

	backend, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionStore
	if redisClient != nil {
		questions = cachedQuestionStore{
			QuestionStore: backend.questions,
			lists:         redisinfra.NewQuestionCache(redisClient, backend.questions, questionTTL),
		}
	} else {
		questions = cachedQuestionStore{
			QuestionStore: backend.questions,
			lists:         memory.NewQuestionCache(backend.questions, questionTTL),
		}
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	attempts := app.NewAttemptService(backend.quizzes, questions, backend.attempts, backend.pieces, sessions)
	wsHandler := transport.NewWSHandler(attempts)

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
		log.Printf("starting quiz attempt service on :%s", finalPort)
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

// buildStores picks the storage backend: postgres when configured, then
// sqlite, then an in-memory store seeded with a demo quiz.
func buildStores(ctx context.Context, cfg config.Config) (stores, func(), error) {
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return stores{}, nil, err
		}
		store := pgstore.NewStore(pool)
		return stores{quizzes: store, questions: store, attempts: store, pieces: store}, pool.Close, nil
	}

	if cfg.Sqlite.Path != "" {
		store, err := sqlitestore.NewStore(cfg.Sqlite.Path)
		if err != nil {
			return stores{}, nil, err
		}
		return stores{quizzes: store, questions: store, attempts: store, pieces: store}, func() { _ = store.Close() }, nil
	}

	store := memory.NewStore()
	if err := seedDemoQuiz(ctx, store); err != nil {
		return stores{}, nil, err
	}
	return stores{quizzes: store, questions: store, attempts: store, pieces: store}, func() {}, nil
}

// cachedQuestionStore serves question lists from a cache while delegating the
// rest of the store surface to the backend.
type cachedQuestionStore struct {
	app.QuestionStore
	lists interface {
		GetQuestionsForQuiz(ctx context.Context, quizID string) ([]domain.Question, error)
	}
}

func (c cachedQuestionStore) GetQuestionsForQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	return c.lists.GetQuestionsForQuiz(ctx, quizID)
}

// seedDemoQuiz gives the no-database mode something to serve; swap in sqlite
// or postgres for real data.
func seedDemoQuiz(ctx context.Context, store *memory.Store) error {
	authors := app.NewAuthorService(store, store, nil)
	quiz, err := authors.CreateQuiz(ctx, domain.Quiz{
		OwnerID:     "demo",
		Title:       "Demo quiz",
		DisplayType: domain.DisplaySinglePage,
	})
	if err != nil {
		return err
	}
	log.Printf("seeded demo quiz %s", quiz.ID)

	if _, err := authors.AddQuestion(ctx, domain.Question{
		QuizID: quiz.ID, Kind: domain.KindSingleChoice, Prompt: "What is 2 + 2?", MaxScore: 1,
		Options: []domain.Option{
			{Text: "3"},
			{Text: "4", Correct: true},
			{Text: "5"},
		},
	}); err != nil {
		return err
	}
	_, err = authors.AddQuestion(ctx, domain.Question{
		QuizID: quiz.ID, Kind: domain.KindFillBlank, Prompt: "Name the primary colors of light.", MaxScore: 1,
		Blanks: [][]string{{"red"}, {"green"}, {"blue"}},
	})
	return err
}
