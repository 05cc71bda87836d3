package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/auth"
	"studyquiz-service/internal/config"
	"studyquiz-service/internal/gemini"
	"studyquiz-service/internal/infra/memory"
	"studyquiz-service/internal/infra/postgres"
	redisinfra "studyquiz-service/internal/infra/redis"
	"studyquiz-service/internal/logging"
	transport "studyquiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	logger := logging.NewLogger(os.Stderr, slog.LevelInfo)
	slog.SetDefault(logger)

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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		scores    app.ScoreRepository
		testCodes app.TestCodeRepository
		users     app.UserRepository
		admins    app.AdminRepository
	)
	if pool != nil {
		scores = postgres.NewScoreRepository(pool)
		testCodes = postgres.NewTestCodeRepository(pool)
		users = postgres.NewUserRepository(pool)
		admins = postgres.NewAdminRepository(pool)
	} else {
		// Demo mode: everything in process, lost on restart.
		logger.Warn("postgres url not configured, using in-memory stores")
		scores = memory.NewScoreStore()
		testCodes = memory.NewTestCodeStore()
		users = memory.NewUserStore()
		admins = memory.NewAdminStore()
	}

	genOpts := []gemini.Option{}
	if cfg.Gemini.URL != "" {
		genOpts = append(genOpts, gemini.WithURL(cfg.Gemini.URL))
	}
	if cfg.Gemini.QuestionCount > 0 {
		genOpts = append(genOpts, gemini.WithQuestionCount(cfg.Gemini.QuestionCount))
	}
	generator := gemini.NewClient(cfg.Gemini.APIKey, genOpts...)

	quizTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, generator, quizTTL)
	} else {
		questions = memory.NewQuestionCache(generator, quizTTL)
	}

	tokens := auth.NewManager(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, time.Hour))

	authService := app.NewAuthService(users, admins, tokens)
	scoreService := app.NewScoreService(scores, testCodes, users)
	quizService := app.NewQuizService(testCodes, questions, generator)
	testCodeService := app.NewTestCodeService(testCodes)

	handler := transport.NewHandler(authService, scoreService, quizService, testCodeService, tokens, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
