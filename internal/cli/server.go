package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quest-bot/internal/app"
	"quest-bot/internal/config"
	questamqp "quest-bot/internal/infra/amqp"
	"quest-bot/internal/infra/memory"
	"quest-bot/internal/infra/postgres"
	redisinfra "quest-bot/internal/infra/redis"
	transport "quest-bot/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quest bot",
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
		defer redisClient.Close()
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	hintPenalty := config.Duration(cfg.Quest.HintPenalty, 5*time.Minute)
	var (
		participants app.ParticipantStore
		attempts     app.AttemptLedger
		hints        app.HintService
		loader       memory.QuestionLoader
	)
	if pool != nil {
		participants = postgres.NewParticipantStore(pool)
		attempts = postgres.NewAttemptLedger(pool)
		hints = postgres.NewHintService(pool, hintPenalty)
		pgLoader := postgres.NewQuestionLoader(pool)
		levels, err := pgLoader.Levels(ctx)
		if err != nil {
			return err
		}
		if cfg.Quest.TotalLevels, err = resolveTotalLevels(cfg.Quest.TotalLevels, levels); err != nil {
			return err
		}
		loader = pgLoader
	} else {
		log.Printf("postgres not configured, progress is kept in memory")
		participants = memory.NewParticipantStore()
		attempts = memory.NewAttemptLedger()
		hints = memory.NewHintService(hintPenalty)
		pack, err := memory.LoadQuestionPack(cfg.Quest.QuestionsFile)
		if err != nil {
			return err
		}
		if cfg.Quest.TotalLevels, err = resolveTotalLevels(cfg.Quest.TotalLevels, len(pack)); err != nil {
			return err
		}
		loader = memory.NewStaticQuestionLoader(pack)
	}

	questionTTL := config.Duration(cfg.Quest.QuestionTTL, 10*time.Minute)
	var questions app.QuestionBank
	var sessions app.SessionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
		if pool == nil {
			hints = redisinfra.NewHintService(redisClient, hintPenalty)
		}
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
		sessions = memory.NewSessionStore()
	}

	hub := transport.NewHub()
	var notifier app.NotificationGateway = hub
	if cfg.AMQP.URL != "" {
		exchange := cfg.AMQP.Exchange
		if exchange == "" {
			exchange = "quest.events"
		}
		conn, ch, err := questamqp.Dial(cfg.AMQP.URL, exchange)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer ch.Close()
		notifier = questamqp.NewPublisher(hub, ch, exchange)
	}

	registration := app.NewRegistrationService(sessions, participants, questions, notifier, cfg.NewCatalog(), app.NewListenerRegistry(), app.RegistrationOptions{
		EmojiHost:          cfg.Bridge.EmojiGuild,
		ReactionWindow:     config.Duration(cfg.Quest.ReactionWindow, 150*time.Second),
		FirstQuestionDelay: config.Duration(cfg.Quest.FirstQuestionDelay, time.Minute),
	})
	defer registration.Close()
	game := app.NewGameService(participants, questions, attempts, notifier, hints, app.GameOptions{
		TotalLevels: cfg.Quest.TotalLevels,
		HintCommand: cfg.Quest.HintCommand,
		HintPenalty: hintPenalty,
	})
	router := app.NewRouter(registration, game, participants)
	wsHandler := transport.NewWSHandler(router, hub, cfg.Bridge.Token)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/bridge", wsHandler.ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quest bot on :%s (%d levels)", finalPort, game.TotalLevels())
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

// resolveTotalLevels returns the level count of the loaded questions, which
// wins over quest.total_levels when the two disagree.
func resolveTotalLevels(configured, loaded int) (int, error) {
	if loaded == 0 {
		return 0, fmt.Errorf("no questions loaded; run `questions import` first")
	}
	if configured != loaded {
		log.Printf("loaded %d question levels, overriding quest.total_levels=%d", loaded, configured)
	}
	return loaded, nil
}
