package cli

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/events"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/objectstore"
	"fintrack/internal/services"
	"fintrack/internal/summary"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, SetupLogger(cfg.LogLevel))
		},
	}
}

func runServe(parent context.Context, cfg *config.Config, logger *applog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}

	res, err := OpenBackend(parent, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	bus := events.NewBus(logger.Logger)
	publisher := events.Publisher(bus)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// In-process subscribers still get changes; the export worker does not.
			logger.Warn("AMQP unavailable, publishing in-process only", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = events.Multi(bus, client)
			logger.Info("Publishing changes to AMQP", "exchange", cfg.AMQPExchange)
		}
	}

	txs := services.NewTransactionService(res.Store, publisher, logger.Logger)

	media, err := objectstore.NewLocal(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		return err
	}

	authSvc := auth.NewService(res.Store, auth.Options{
		SessionTTL: cfg.SessionTTL,
		OAuth:      oauthConfig(cfg),
		Logger:     logger.Logger,
	})

	completer := summary.NewClient(summary.ClientConfig{
		APIURL:  cfg.OpenRouterAPIURL,
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.OpenRouterModel,
		Referer: cfg.OpenRouterReferer,
		Title:   cfg.OpenRouterTitle,
		Timeout: cfg.SummaryTimeout,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions: txs,
		Profiles:     services.NewProfileService(media, authSvc, publisher, logger.Logger),
		Auth:         authSvc,
		Summary:      summary.NewService(txs.SummaryLister(), completer),
		Media:        media,
		MediaPrefix:  mediaPrefix(cfg.MediaBaseURL),
		Health:       res.Store,
		Logger:       logger,
	})
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = cfg.SummaryTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := GracefulShutdown(parent, logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	changes, unsubscribe := bus.Subscribe(64, events.ResourceTransactions)
	defer unsubscribe()
	go txs.WatchChanges(ctx, changes)
	if cfg.AMQPURL != "" {
		go watchRemoteChanges(ctx, cfg, txs, logger)
	}

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"oauth", cfg.OAuthEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}

func oauthConfig(cfg *config.Config) *auth.OAuthConfig {
	if !cfg.OAuthEnabled() {
		return nil
	}
	return &auth.OAuthConfig{
		Provider:     "google",
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		UserInfoURL:  cfg.OAuthUserInfoURL,
		RedirectURL:  cfg.OAuthRedirectURL,
		Scopes:       cfg.OAuthScopes,
	}
}

// mediaPrefix is the path part of the media base URL, which may be absolute
// when uploads are served from another host.
func mediaPrefix(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Path
}

// watchRemoteChanges drops cached lists when another instance publishes a
// change for the same user.
func watchRemoteChanges(ctx context.Context, cfg *config.Config, txs *services.TransactionService, logger *applog.Logger) {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, list cache follows local writes only", applog.FieldError, err)
		return
	}
	defer client.Close()

	err = client.WatchChanges(ctx, func(_ context.Context, c events.Change) error {
		txs.Invalidate(c)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("AMQP change watcher stopped", applog.FieldError, err)
	}
}
