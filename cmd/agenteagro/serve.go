package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/agenteagro/agenteagro/internal/ai"
	"github.com/agenteagro/agenteagro/internal/config"
	"github.com/agenteagro/agenteagro/internal/conversation"
	"github.com/agenteagro/agenteagro/internal/db"
	"github.com/agenteagro/agenteagro/internal/handlers"
	"github.com/agenteagro/agenteagro/internal/logger"
	"github.com/agenteagro/agenteagro/internal/pipeline"
	"github.com/agenteagro/agenteagro/internal/professional"
	"github.com/agenteagro/agenteagro/internal/server"
	"github.com/agenteagro/agenteagro/internal/sysconfig"
	"github.com/agenteagro/agenteagro/internal/whatsapp"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			conversation.NewService,
			professional.NewService,
			sysconfig.NewService,
			provideWhatsAppClient,
			provideAIClient,
			provideProcessor,
			providePipelinePool,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(provideProfessionalsHandler),
			provideServerHandler(provideConfigHandler),
			provideServerHandler(provideAnalyticsHandler),
			provideServerHandler(provideConversationsHandler),
			provideServer,
		),
		fx.Invoke(
			startPipelinePool,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideWhatsAppClient(log *slog.Logger, cfg config.Config) *whatsapp.Client {
	return whatsapp.NewClient(log, cfg.WhatsApp.GraphBaseURL, 30*time.Second)
}

func provideAIClient(log *slog.Logger, cfg config.Config) *ai.Client {
	return ai.NewClient(log, cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, 60*time.Second)
}

func provideProcessor(log *slog.Logger, conversations *conversation.Service, configs *sysconfig.Service, pros *professional.Service, gateway *whatsapp.Client, responder *ai.Client) *pipeline.Processor {
	return pipeline.NewProcessor(log, conversations, configs, pros, gateway, responder)
}

func providePipelinePool(log *slog.Logger, processor *pipeline.Processor, cfg config.Config) *pipeline.Pool {
	return pipeline.NewPool(log, processor, cfg.Pipeline.Workers, cfg.Pipeline.QueueSize)
}

func provideAuthHandler(log *slog.Logger, cfg config.Config) (*handlers.AuthHandler, error) {
	expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("parse jwt_expires_in: %w", err)
	}
	return handlers.NewAuthHandler(log, cfg.Admin.Username, cfg.Admin.Password, cfg.Auth.JWTSecret, expiresIn), nil
}

func provideWebhookHandler(log *slog.Logger, cfg config.Config, pool *pipeline.Pool) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, cfg.WhatsApp.VerifyToken, pool)
}

func provideProfessionalsHandler(log *slog.Logger, service *professional.Service) *handlers.ProfessionalsHandler {
	return handlers.NewProfessionalsHandler(log, service)
}

func provideConfigHandler(log *slog.Logger, service *sysconfig.Service) *handlers.ConfigHandler {
	return handlers.NewConfigHandler(log, service)
}

func provideAnalyticsHandler(log *slog.Logger, service *conversation.Service) *handlers.AnalyticsHandler {
	return handlers.NewAnalyticsHandler(log, service)
}

func provideConversationsHandler(log *slog.Logger, service *conversation.Service) *handlers.ConversationsHandler {
	return handlers.NewConversationsHandler(log, service)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers)
}

func startPipelinePool(lc fx.Lifecycle, pool *pipeline.Pool) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { pool.Start(); return nil },
		OnStop:  func(ctx context.Context) error { pool.Stop(); return nil },
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
