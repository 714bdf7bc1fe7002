package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"arogya/internal/config"
	"arogya/internal/diagnostic"
	"arogya/internal/gateway"
	"arogya/internal/httpapi"
	"arogya/internal/store"
	"arogya/internal/translate"
	"arogya/internal/workflow"
)

// App wires the gateway, session store, workflow engine and HTTP surface
// from one config.
type App struct {
	Config   config.Config
	Gateway  gateway.Provider
	Sessions diagnostic.Store
	Engine   *workflow.Engine
	Store    *store.Store
	Handler  *httpapi.Handler

	server *http.Server
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	provider := selectGateway(cfg)

	sessions, err := selectSessions(cfg)
	if err != nil {
		return nil, err
	}

	agent := diagnostic.NewAgent(provider, sessions)
	engine := workflow.NewEngine(provider, agent, selectTranslator(cfg, provider))

	var runStore *store.Store
	if cfg.Database.DSN != "" {
		runStore, err = store.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, runStore.DB()); err != nil {
			return nil, err
		}
		engine.Runs = runStore
	} else if !cfg.Dev.Mode {
		return nil, errors.New("missing database.dsn (or AROGYA_DB_DSN) outside dev mode")
	}

	handler := httpapi.NewHandler(cfg, engine, runStore)
	if runStore != nil {
		handler.Pingers = append(handler.Pingers, runStore)
	}
	if redisSessions, ok := sessions.(*diagnostic.RedisStore); ok {
		handler.Pingers = append(handler.Pingers, redisSessions)
	}

	return &App{
		Config:   cfg,
		Gateway:  provider,
		Sessions: sessions,
		Engine:   engine,
		Store:    runStore,
		Handler:  handler,
	}, nil
}

func (a *App) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	a.Handler.RegisterRoutes(mux)

	a.server = &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a.Sessions != nil {
		if err := a.Sessions.Close(); err != nil {
			log.Printf("session store close failed err=%v", err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			log.Printf("store close failed err=%v", err)
		}
	}
}

func selectGateway(cfg config.Config) gateway.Provider {
	var provider gateway.Provider
	switch cfg.Gateway.Provider {
	case "openai":
		provider = gateway.NewOpenAI(cfg.Gateway.OpenAIKey, cfg.Gateway.Model)
	default:
		provider = gateway.NewNoop()
	}
	return gateway.NewRetrying(provider, gateway.RetryPolicy{
		MaxAttempts: cfg.Gateway.MaxAttempts,
		BaseBackoff: cfg.Gateway.BaseBackoff,
	})
}

func selectSessions(cfg config.Config) (diagnostic.Store, error) {
	if cfg.Sessions.Backend == "redis" {
		if cfg.Redis.URL == "" {
			return nil, errors.New("redis session backend requires redis.url (or AROGYA_REDIS_URL)")
		}
		return diagnostic.NewRedisStore(cfg.Redis.URL, cfg.Sessions.TTL)
	}
	return diagnostic.NewMemoryStore(cfg.Sessions.TTL), nil
}

func selectTranslator(cfg config.Config, provider gateway.Provider) translate.Translator {
	if cfg.Translate.Provider == "gateway" {
		return translate.Gateway{Provider: provider}
	}
	return translate.Passthrough{}
}
