package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"
	julie "github.com/set-night/julie"
	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/handler"
	"github.com/set-night/julie/internal/httpapi"
	"github.com/set-night/julie/internal/middleware"
	"github.com/set-night/julie/internal/repository"
	"github.com/set-night/julie/internal/service"
	"github.com/set-night/julie/internal/telegram"
)

func main() {
	// Setup structured logging
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &level,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.IsDevelopment() {
		level.Set(slog.LevelDebug)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, repository.PoolOptionsFor(cfg.Workers))
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(julie.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store := repository.NewStore(pool)

	// Services that need the bot are created after it; the middleware
	// resolves users through this pointer.
	var (
		h           *handler.Handler
		userService *service.UserService
	)
	resolveUser := middleware.UserResolverFunc(func(ctx context.Context, telegramID int64, displayName string) (*domain.User, bool, error) {
		return userService.FindOrCreate(ctx, telegramID, displayName)
	})

	// Create bot. A single bot worker runs the middleware chain synchronously,
	// so updates reach the chat queue in arrival order; the queue runs up to
	// cfg.Workers chats in parallel.
	chatQueue := middleware.NewChatQueue(cfg.Workers)
	opts := []bot.Option{
		bot.WithMiddlewares(
			chatQueue.Middleware(),
			middleware.Recover(),
			middleware.Logging(),
			middleware.UserLoader(resolveUser),
		),
		bot.WithWorkers(1),
		bot.WithNotAsyncHandlers(),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.HandleUnknown(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)
	if cfg.BotUsername == "" {
		cfg.BotUsername = me.Username
	}

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	// Initialize telegram logger
	tgLogger := telegram.NewTelegramLogger(b, cfg)
	notifier := telegram.NewNotifier(b)

	// Initialize services
	openAI := service.NewOpenAIService(cfg)
	userService = service.NewUserService(store, tgLogger)
	chatService := service.NewChatService(store, openAI, cfg, tgLogger)
	billingService := service.NewBillingService(store, service.NewStripeGateway(cfg.StripeAPIKey), notifier, cfg, tgLogger)

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:    b,
		Cfg:    cfg,
		Chat:   chatService,
		Speech: openAI,
		Audit:  tgLogger,
	})
	h.Register()

	// Billing HTTP server
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           httpapi.NewRouter(httpapi.NewAPI(billingService, cfg)),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID, "workers", cfg.Workers)
	b.Start(ctx)

	// Graceful shutdown
	chatQueue.Wait()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", "error", err)
	}
	slog.Info("bot stopped gracefully")
}
