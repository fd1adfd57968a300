package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/config"
	"quiz-progression-service/internal/domain"
	"quiz-progression-service/internal/event"
	"quiz-progression-service/internal/infra/memory"
	pginfra "quiz-progression-service/internal/infra/postgres"
	redisinfra "quiz-progression-service/internal/infra/redis"
	transport "quiz-progression-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the progression server",
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

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

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

	// Persistence: JSONB documents in Postgres when configured,
	// in-memory stores otherwise.
	var users app.UserRepository = memory.NewUserRepository()
	var ledgerStore app.LedgerStore = memory.NewLedgerStore()
	if cfg.Postgres.URL != "" {
		db := openBunDB(cfg.Postgres.URL)
		defer db.Close()
		users = pginfra.NewUserRepository(db)
		ledgerStore = pginfra.NewLedgerStore(db)
	}

	// Catalog: Postgres loader behind a Redis read-through cache, or a
	// static in-memory catalog for local runs.
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.CatalogRepository = memory.NewStaticCatalog(sampleQuizzes(), sampleModules(), sampleCategories())
	if pool != nil && redisClient != nil {
		catalog = redisinfra.NewCatalogRepository(redisClient, pginfra.NewCatalogLoader(pool), catalogTTL)
	} else if pool != nil {
		catalog = pginfra.NewCatalogLoader(pool)
	}

	var responseCache app.Cache = memory.NewCache()
	if redisClient != nil {
		responseCache = redisinfra.NewCache(redisClient, log)
	}

	hub := app.NewProgressHub()
	if redisClient != nil {
		hub.WithPresence(redisinfra.NewPresence(redisClient, 2*time.Minute))
	}

	var publisher app.EventPublisher = app.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		p, err := event.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	}

	subCfg := app.SubmissionConfig{
		MaxAttempts: cfg.Attempts.Max,
		Cooldown:    config.TTLDuration(cfg.Attempts.Cooldown, 3*time.Hour),
	}
	submissions := app.NewSubmissionService(users, catalog, responseCache, publisher, hub, subCfg)
	completion := app.NewCompletionService(users, catalog, responseCache, publisher, hub)

	var gate app.AttemptPolicy = app.NewLedgerPolicy(ledgerStore, config.TTLDuration(cfg.Attempts.LedgerWindow, app.DefaultLedgerWindow))
	if cfg.Attempts.Gate == "record" {
		gate = app.NewRecordPolicy(users, subCfg)
	}

	handlers := transport.NewHandlers(submissions, completion, gate, log)
	router := transport.NewRouter(handlers, transport.NewFeedHandler(hub, log), responseCache, transport.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		TTLs: transport.CacheTTLs{
			Gamification: config.TTLDuration(cfg.Cache.Gamification, 60*time.Second),
			Modules:      config.TTLDuration(cfg.Cache.Modules, 120*time.Second),
			Categories:   config.TTLDuration(cfg.Cache.Categories, 300*time.Second),
		},
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting progression service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds a minimal catalog for running without Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:       "quiz-1",
			ModuleID: "mod-1",
			Title:    "Fundamentos",
			Questions: []domain.Question{
				{
					Prompt: "Quantas linhas tem a pauta?",
					Options: []domain.Option{
						{Text: "4"},
						{Text: "5", Correct: true},
						{Text: "6"},
					},
				},
			},
		},
	}
}

func sampleModules() map[string]domain.Module {
	return map[string]domain.Module{
		"mod-1": {
			ID:      "mod-1",
			Title:   "Teoria básica",
			Level:   domain.LevelAprendiz,
			QuizIDs: []string{"quiz-1"},
			Active:  true,
		},
	}
}

func sampleCategories() []domain.Category {
	return []domain.Category{
		{ID: "cat-1", Name: "Teoria"},
	}
}
