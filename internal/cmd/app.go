package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rpa-assistant/internal/chatbot"
	"rpa-assistant/internal/chatbot/cache"
	"rpa-assistant/internal/chatbot/catalog"
	"rpa-assistant/internal/chatbot/executor"
	"rpa-assistant/internal/common/config"
	"rpa-assistant/internal/common/database"
	"rpa-assistant/internal/common/logger"
	"rpa-assistant/internal/common/observability"
)

// app holds everything a command needs. close releases it in reverse order.
type app struct {
	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger
	obs    *observability.Observability
	store  *database.SQLStore
	redis  *database.RedisClient
	bot    *chatbot.Bot
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// loadCatalog reads chatbot.catalog_path, or builds the built-in catalog in
// the dialect of the configured driver.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Chatbot.CatalogPath != "" {
		return catalog.LoadFile(cfg.Chatbot.CatalogPath)
	}
	return catalog.Defaults(catalog.Dialect(cfg.Database.Driver)), nil
}

// newApp connects to the store (and Redis when enabled) and builds the bot.
// withMetrics registers the Prometheus exporter; one-shot commands skip it.
func newApp(ctx context.Context, withMetrics bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)
	a := &app{cfg: cfg, zapLog: zapLog, log: log}

	cat, err := loadCatalog(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	a.store, err = database.Open(cfg.Database)
	if err != nil {
		a.close()
		return nil, err
	}
	// An unreachable store is not fatal: questions answer with the failure.
	if err := retryWithBackoff(func() error { return a.store.Ping(ctx) }, 3, time.Second, log, "database ping"); err != nil {
		log.Warn("execution log store unreachable at startup", map[string]interface{}{
			"driver": cfg.Database.Driver,
			"error":  err.Error(),
		})
	}

	var opts []executor.Option
	if cfg.Redis.Enabled {
		a.redis = database.NewRedis(cfg.Redis)
		if err := a.redis.Ping(ctx); err != nil {
			log.Warn("outcome cache disabled", map[string]interface{}{"error": err.Error()})
		} else {
			opts = append(opts, executor.WithCache(cache.New(a.redis.Client, config.GetDuration(cfg.Redis.CacheTTL), log)))
		}
	}

	var botOpts []chatbot.Option
	if withMetrics {
		a.obs = observability.New(cfg.App.Name)
		botOpts = append(botOpts, chatbot.WithObservability(a.obs))
	}

	exec := executor.New(cat, a.store, log, opts...)
	a.bot = chatbot.New(cat, exec, log, botOpts...)

	log.Info("assistant ready", map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"intents": cat.Len(),
		"cache":   len(opts) > 0,
	})
	return a, nil
}

func (a *app) requestTimeout() time.Duration {
	return config.GetDuration(a.cfg.Chatbot.RequestTimeout)
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	a.obs.Shutdown()
	if a.zapLog != nil {
		_ = a.zapLog.Sync()
	}
}

// retryWithBackoff attempts to execute a function with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
