package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"english-mcq-service/internal/app"
	"english-mcq-service/internal/config"
	"english-mcq-service/internal/infra/blob"
	"english-mcq-service/internal/infra/memory"
	pgloader "english-mcq-service/internal/infra/postgres"
	redisinfra "english-mcq-service/internal/infra/redis"
	"english-mcq-service/internal/infra/sqlstore"
	"english-mcq-service/internal/logger"
	transport "english-mcq-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the MCQ server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
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

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		store  app.Store
		loader memory.QuestionLoader
	)
	if cfg.Database.Driver != "" {
		db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := runMigrations(ctx, db, log); err != nil {
			return err
		}
		sqlStore := sqlstore.NewStore(db)
		store, loader = sqlStore, sqlStore
	} else {
		memStore := memory.NewStore()
		if err := memStore.SaveQuestions(ctx, memory.BankQuestions(memory.DefaultBank())); err != nil {
			return err
		}
		log.Warn("no database configured, learning data is kept in memory")
		store, loader = memStore, memStore
	}

	if cfg.Database.Driver == "postgres" {
		pool, err := pgxpool.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewQuestionLoader(pool)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	questionTTL := config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionCache(loader, questionTTL)
	}

	uploader, err := blob.NewFSUploader(cfg.Avatars.Dir, cfg.Avatars.PublicBaseURL)
	if err != nil {
		return err
	}

	opts := []app.Option{
		app.WithGenerator(memory.NewStaticGenerator(memory.DefaultBank())),
		app.WithUploader(uploader),
		app.WithLogger(log),
	}
	var relay *redisinfra.DashboardRelay
	if redisClient != nil {
		relay = redisinfra.NewDashboardRelay(redisClient, cfg.Dashboard.ChannelPrefix, log)
		opts = append(opts, app.WithPublisher(relay))
	}
	service := app.NewService(store, questions, app.Settings{
		PointsPerCorrect: cfg.Scoring.PointsPerCorrect,
		HistoryLimit:     cfg.Scoring.HistoryLimit,
		MaxRetestCount:   cfg.Scoring.MaxRetestCount,
	}, opts...)

	if relay != nil {
		stopRelay, err := relay.Start(ctx, service.Hub())
		if err != nil {
			return err
		}
		defer stopRelay()
	}

	if cfg.Auth.JWTSecret == "" && !cfg.Auth.AllowDevHeader {
		log.Warn("auth.jwt_secret is empty, every API request will be rejected")
	}
	router := transport.NewRouter(transport.RouterConfig{
		Service:        service,
		Auth:           transport.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AllowDevHeader),
		Logger:         log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AvatarDir:      uploader.Dir(),
	})

	// no WriteTimeout: websocket connections are long lived
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("starting mcq service", "port", finalPort, "database", cfg.Database.Driver, "redis", cfg.Redis.Addr != "")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
