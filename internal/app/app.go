package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/rpcconsole/internal/cache"
	"github.com/MrSnakeDoc/rpcconsole/internal/config"
	"github.com/MrSnakeDoc/rpcconsole/internal/console"
	"github.com/MrSnakeDoc/rpcconsole/internal/degrade"
	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver"
	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
	"github.com/MrSnakeDoc/rpcconsole/internal/observability"
	"github.com/MrSnakeDoc/rpcconsole/internal/redis"
	"github.com/MrSnakeDoc/rpcconsole/internal/registry"
	"github.com/MrSnakeDoc/rpcconsole/internal/scheduler"
	"github.com/MrSnakeDoc/rpcconsole/internal/sources/degradefile"
	"github.com/MrSnakeDoc/rpcconsole/internal/sources/descriptors"
	redisstore "github.com/MrSnakeDoc/rpcconsole/internal/store/redis"
	"github.com/MrSnakeDoc/rpcconsole/internal/utils"
	"github.com/MrSnakeDoc/rpcconsole/internal/version"
)

const pullTimeout = 10 * time.Second

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	console     *console.Server
	http        *httpserver.Server
	redisClient *goredis.Client
	references  *registry.References
	services    *registry.Services
	metadata    *cache.MetadataCache
	degrades    *degrade.Registry
	guard       *degrade.Guard
	puller      *scheduler.DegradePuller
}

// New loads configuration and wires every component. Nothing listens yet.
func New() (*App, error) {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	observability.RegisterMetrics()

	localIP := cfg.LocalIP
	if localIP == "" {
		localIP = utils.LocalIPv4()
	}

	references := registry.NewReferences()
	services := registry.NewServices()
	if cfg.DescriptorFile != "" {
		res, err := descriptors.Bootstrap(cfg.DescriptorFile, references, services)
		if err != nil {
			return nil, fmt.Errorf("failed to load descriptors: %w", err)
		}
		loggerClient.Info("descriptors loaded",
			logger.String("file", cfg.DescriptorFile),
			logger.Int("references", res.References),
			logger.Int("services", res.Services))
	}

	metadata, err := cache.NewMetadataCache(cfg.CachePolicy, cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	source, redisClient, err := degradeSource(cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	degrades := degrade.NewRegistry(source, loggerClient.With(logger.String("component", "degrade")))

	var pullTrigger chan struct{}
	var puller *scheduler.DegradePuller
	if source != nil {
		pullTrigger = make(chan struct{}, 1)
		puller = scheduler.NewDegradePuller(degrades, loggerClient, cfg.DegradePullInterval, pullTimeout, pullTrigger)
	}

	dispatcher := console.NewDispatcher(console.Deps{
		AppName:     cfg.AppName,
		LocalIP:     localIP,
		References:  references,
		Services:    services,
		Degrades:    degrades,
		Cache:       cache.NewManager(metadata),
		PullTimeout: pullTimeout,
		Logger:      loggerClient,
	})

	consoleServer := console.NewServer(console.Options{
		Addr:         cfg.ConsoleAddr,
		LocalIP:      localIP,
		MaxLine:      cfg.ConsoleMaxLine,
		IdleTimeout:  cfg.ConsoleIdleTimeout,
		WriteTimeout: cfg.ConsoleWriteTimeout,
		AllowedCIDRS: cfg.ConsoleAllowedCIDRS,
		ConnRate:     cfg.ConsoleConnRate,
		ConnBurst:    cfg.ConsoleConnBurst,
	}, dispatcher, loggerClient.With(logger.String("component", "console")))

	var httpServer *httpserver.Server
	if cfg.HTTPAddr != "" {
		httpServer = httpserver.New(cfg.HTTPAddr, loggerClient, deps.Deps{
			Logger:       loggerClient,
			StartTime:    time.Now(),
			Version:      version.Version,
			Commit:       version.Commit,
			BuildDate:    version.BuildDate,
			GoVersion:    version.GoVersion,
			AppName:      cfg.AppName,
			AllowedCIDRS: cfg.HTTPAllowedCIDRS,
			TrustProxy:   cfg.HTTPTrustProxy,
			RedisClient:  redisClient,
			Degrades:     degrades,
			References:   references,
			Services:     services,
			CacheSize:    metadata.Len,
			Sessions:     consoleServer.ActiveSessions,
			PullTrigger:  pullTrigger,
		})
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		console:     consoleServer,
		http:        httpServer,
		redisClient: redisClient,
		references:  references,
		services:    services,
		metadata:    metadata,
		degrades:    degrades,
		guard:       degrade.NewGuard(degrades),
		puller:      puller,
	}, nil
}

// degradeSource builds the configured source. The redis client is returned
// so it can be health-checked and closed.
func degradeSource(cfg *config.Config, log logger.Logger) (degrade.Source, *goredis.Client, error) {
	switch cfg.DegradeSource {
	case config.DegradeSourceRedis:
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		store := redisstore.NewStore(client, cfg.RedisDegradeKey)
		seedCtx, cancel := context.WithTimeout(context.Background(), pullTimeout)
		defer cancel()
		seeder := scheduler.NewDegradeSeeder(store, log)
		if err := seeder.Seed(seedCtx, cfg.DegradeSeed); err != nil {
			utils.MustClose(client, log, "redis")
			return nil, nil, fmt.Errorf("failed to seed degrade set: %w", err)
		}
		if err := seeder.Unseed(seedCtx, cfg.DegradeUnseed); err != nil {
			utils.MustClose(client, log, "redis")
			return nil, nil, fmt.Errorf("failed to unseed degrade set: %w", err)
		}
		log.Info("degrade source: redis", logger.String("key", store.Key()))
		return store, client, nil

	case config.DegradeSourceFile:
		log.Info("degrade source: file", logger.String("file", cfg.DegradeFile))
		return degradefile.NewSource(cfg.DegradeFile), nil, nil

	default:
		log.Info("no degrade source configured, degrade list is manual only")
		return nil, nil, nil
	}
}

// Guard is the fail-fast check outbound calls go through.
func (a *App) Guard() *degrade.Guard { return a.guard }

// MetadataCache is the framework cache the console sizes and clears.
func (a *App) MetadataCache() *cache.MetadataCache { return a.metadata }

// References and Services are filled from the descriptor file and may be
// extended by the embedding framework before Run.
func (a *App) References() *registry.References { return a.references }
func (a *App) Services() *registry.Services     { return a.services }

// ConsoleAddr is the bound console address, nil until Run has started
// listening.
func (a *App) ConsoleAddr() net.Addr { return a.console.Addr() }

// Run serves until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext serves until ctx is cancelled or a server fails.
func (a *App) RunContext(ctx context.Context) error {
	a.logger.Infof("🚀 Starting rpcconsole %s for %s", version.Version, a.cfg.AppName)
	a.logger.Infof("rpcconsole %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	// the first pull completes before the console accepts anyone
	if a.puller != nil {
		a.puller.Start(ctx)
		a.logger.Info("degrade puller started",
			logger.Duration("interval", a.cfg.DegradePullInterval))
	}

	if err := a.console.Listen(); err != nil {
		if a.puller != nil {
			a.puller.Stop()
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.console.Serve(gctx)
	})
	if a.http != nil {
		g.Go(func() error {
			if err := a.http.Start(); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			return a.http.Stop(shutdownCtx)
		})
	}

	<-gctx.Done()
	a.logger.Info("⏳ Shutting down gracefully...")

	if a.puller != nil {
		a.puller.Stop()
	}

	err := g.Wait()
	if a.redisClient != nil {
		if cerr := a.redisClient.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close redis: %w", cerr))
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if err != nil {
		a.logger.Error("rpcconsole stopped with errors", logger.Error(err))
		return err
	}
	a.logger.Info("✅ rpcconsole stopped cleanly")
	return nil
}
