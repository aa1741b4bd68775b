package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/smartmark/smartmark/internal/auth"
	"github.com/smartmark/smartmark/internal/config"
	"github.com/smartmark/smartmark/internal/httpserver"
	"github.com/smartmark/smartmark/internal/httpserver/deps"
	"github.com/smartmark/smartmark/internal/logger"
	"github.com/smartmark/smartmark/internal/realtime"
	"github.com/smartmark/smartmark/internal/redis"
	"github.com/smartmark/smartmark/internal/scheduler"
	"github.com/smartmark/smartmark/internal/store/sqlite"
	"github.com/smartmark/smartmark/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	store       *sqlite.Repository
	hub         *realtime.Hub
	bridge      *realtime.Bridge
	redisClient *goredis.Client
	seeder      *scheduler.SeedImporter
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// In-process event fan-out. With Redis configured, the bridge also
	// relays events across instances; stores publish through it so both
	// sides see every change.
	hub := realtime.NewHub(loggerClient)
	var events realtime.Broker = hub

	var redisClient *goredis.Client
	var bridge *realtime.Bridge
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
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
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")
		redisClient = client
		bridge = realtime.NewBridge(hub, client, loggerClient)
		events = bridge
	}

	store, err := sqlite.Open(cfg.DatabaseURL, cfg.DatabaseAuthToken, events)
	if err != nil {
		loggerClient.Errorf("Failed to open bookmark store: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("bookmark store ready")

	sessions := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL, cfg.SecureCookies)
	google := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)

	// Seed importer (if a seed file is configured)
	var seeder *scheduler.SeedImporter
	var seedTrigger chan struct{}
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing importer",
			logger.String("file", cfg.SeedFile),
			logger.String("owner", cfg.SeedOwner))
		seedTrigger = make(chan struct{}, 1)
		seeder = scheduler.NewSeedImporter(
			cfg.SeedFile,
			store,
			cfg.SeedOwner,
			loggerClient,
			cfg.SeedReloadInterval,
			seedTrigger,
		)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		Store:             store,
		DBPing:            store.Ping,
		Events:            events,
		Sessions:          sessions,
		Google:            google,
		SecureCookies:     cfg.SecureCookies,
		TrustProxy:        cfg.TrustProxy,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		AuthRateBurst:     cfg.AuthRateBurst,
		AuthRatePerMin:    cfg.AuthRatePerMin,
		SeedReloadTrigger: seedTrigger,
		RedisClient:       redisClient,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		store:       store,
		hub:         hub,
		bridge:      bridge,
		redisClient: redisClient,
		seeder:      seeder,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting SmartMark v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("SmartMark %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.bridge != nil {
		if err := a.bridge.Start(ctx); err != nil {
			return fmt.Errorf("failed to start event bridge: %w", err)
		}
		a.logger.Info("event bridge started")
	}

	if a.seeder != nil {
		if err := a.seeder.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed importer: %w", err)
		}
		a.logger.Info("seed importer started",
			logger.Duration("interval", a.cfg.SeedReloadInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.seeder != nil {
		a.seeder.Stop()
	}
	if a.bridge != nil {
		a.bridge.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Close active subscriptions after the server so in-flight sessions
	// drain through their own contexts first.
	a.hub.Close()

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close bookmark store: %v", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ SmartMark stopped cleanly")
	return nil
}
