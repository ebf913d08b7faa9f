package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bizkit/config"
	"bizkit/internal/api"
	"bizkit/internal/assets"
	"bizkit/internal/llm"
	"bizkit/internal/mailer"
	"bizkit/internal/migrations"
	"bizkit/internal/repository"
	"bizkit/internal/service"
	"bizkit/pkg/circuitbreaker"
	pkgconfig "bizkit/pkg/config"
	"bizkit/pkg/db"
	"bizkit/pkg/logger"
	"bizkit/pkg/mq"
	redisclient "bizkit/pkg/redis"
	"bizkit/pkg/util"
)

func main() {
	cfg, err := config.Load(pkgconfig.GetEnv("CONFIG_DIR", "."))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Server.DevMode)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting bizkit server...",
		zap.String("port", cfg.Server.Port),
		zap.Bool("dev_mode", cfg.Server.DevMode),
	)

	health := &api.Health{EnvCheck: envCheck(cfg)}

	dbtx, closeDB := openDatabase(ctx, cfg.DB, health, log)
	defer closeDB()

	rdb := redisclient.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
		health.Cache = func(ctx context.Context) error { return redisclient.Ping(ctx, rdb) }
	}

	var publisher service.EventPublisher
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("RabbitMQ unavailable, delivery events disabled", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
			health.Queue = func(context.Context) error {
				if !p.IsConnected() {
					return errors.New("publisher disconnected")
				}
				return nil
			}
		}
	}

	var deduper service.Deduper
	if rdb != nil {
		deduper = util.NewDeduperWithLogger(rdb, 24*time.Hour, log)
	}

	websiteGen := openAIGenerator(cfg, log)
	geminiGen := geminiGenerator(ctx, cfg, log)
	health.WebsiteGeneration = websiteGen != nil
	health.EmailGeneration = geminiGen != nil
	health.Breakers = breakerStates(map[string]llm.Generator{
		llm.ProviderOpenAI: websiteGen,
		llm.ProviderGemini: geminiGen,
	})

	var transport mailer.Transport
	if t, err := mailer.NewSMTPTransport(cfg.SMTP); err != nil {
		log.Warn("Email sending not configured", zap.Error(err))
	} else {
		transport = t
	}
	health.EmailSending = transport != nil

	assetsService, err := newAssetsService(ctx, cfg, rdb, log)
	if err != nil {
		log.Fatal("Failed to init assets store", zap.Error(err))
	}

	var emailLogs repository.EmailLogStore
	if dbtx != nil {
		emailLogs = repository.NewEmailLogRepository(dbtx)
	}

	var chatStore repository.ChatStore
	if dbtx != nil {
		chatStore = repository.NewChatMessageRepository(dbtx)
	}

	router := api.NewRouter(api.Deps{
		Server:    cfg.Server,
		Logger:    log,
		Health:    health,
		Auth:      service.NewAuthService(repository.NewUserRepository(dbtx), cfg.JWT.Secret, cfg.JWT.TTL),
		Website:   service.NewWebsiteService(websiteGen, cfg.OpenAI.Model, log),
		Email:     service.NewEmailService(geminiGen, cfg.Gemini.Model, cfg.Bulk.Delay, log),
		Chat:      service.NewChatService(geminiGen, chatStore, cfg.Gemini.Model, log),
		Delivery:  service.NewDeliveryService(transport, publisher, deduper, log),
		Assets:    assetsService,
		EmailLogs: emailLogs,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	<-ctx.Done()
	log.Info("Shutting down bizkit server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("bizkit server shutdown complete")
}

var (
	connectDB = db.NewConnection
	migrateDB = db.Migrate
)

// openDatabase connects and migrates. Either failure leaves the server
// running without a database: dbtx is nil and the health probe reports the
// cause, so generation endpoints keep working.
func openDatabase(ctx context.Context, cfg pkgconfig.DBConfig, health *api.Health, log *zap.Logger) (repository.DBTX, func()) {
	// DB 不可用时继续提供生成类接口
	pool, err := connectDB(ctx, cfg, log)
	if err != nil {
		log.Warn("Database unavailable, auth and history endpoints will return 503", zap.Error(err))
		health.Database = func(context.Context) error { return err }
		return nil, func() {}
	}
	if err := migrateDB(ctx, pool, migrations.Migrations); err != nil {
		pool.Close()
		log.Warn("Failed to apply migrations, running without a database", zap.Error(err))
		migrateErr := fmt.Errorf("migrations failed: %w", err)
		health.Database = func(context.Context) error { return migrateErr }
		return nil, func() {}
	}
	health.Database = pingPool(pool)
	return pool, pool.Close
}

func pingPool(pool *pgxpool.Pool) api.Probe {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// openAIGenerator returns nil when no key is set so the website service
// reports "not configured" instead of failing upstream.
func openAIGenerator(cfg *config.Config, log *zap.Logger) llm.Generator {
	gen, err := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	if err != nil {
		log.Warn("Website generation not configured", zap.Error(err))
		return nil
	}
	cb := circuitbreaker.NewCircuitBreaker(llm.BreakerConfig(llm.ProviderOpenAI, log))
	return llm.Guard(llm.ProviderOpenAI, gen, cb)
}

func geminiGenerator(ctx context.Context, cfg *config.Config, log *zap.Logger) llm.Generator {
	gen, err := llm.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Warn("Email and chat generation not configured", zap.Error(err))
		return nil
	}
	cb := circuitbreaker.NewCircuitBreaker(llm.BreakerConfig(llm.ProviderGemini, log))
	return llm.Guard(llm.ProviderGemini, gen, cb)
}

// breakerStates collects the state of every guarded generator.
func breakerStates(gens map[string]llm.Generator) map[string]func() circuitbreaker.State {
	out := make(map[string]func() circuitbreaker.State)
	for provider, gen := range gens {
		if g, ok := gen.(*llm.Guarded); ok {
			out[provider] = g.State
		}
	}
	return out
}

func newAssetsService(ctx context.Context, cfg *config.Config, rdb *goredis.Client, log *zap.Logger) (*assets.Service, error) {
	repo := assets.NewMemoryRepository()
	if cfg.Assets.Backend == "redis" {
		if rdb == nil {
			return nil, errors.New("assets backend redis requires REDIS_ADDR")
		}
		repo = assets.NewRedisRepository(rdb, cfg.Assets.TTL)
	}

	var blobs assets.BlobStore = assets.NewMemoryBlobStore()
	if cfg.Assets.BlobBackend == "s3" {
		s3, err := assets.NewS3BlobStore(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		blobs = s3
	}

	log.Info("Assets store ready",
		zap.String("backend", cfg.Assets.Backend),
		zap.String("blob_backend", cfg.Assets.BlobBackend),
	)
	return assets.NewService(repo, blobs, cfg.Assets.MaxUpload, log), nil
}

func envCheck(cfg *config.Config) map[string]string {
	status := func(v string) string {
		if v == "" {
			return "Missing"
		}
		return "Set"
	}
	return map[string]string{
		"GEMINI_API_KEY1": status(cfg.Gemini.APIKey),
		"OPENAI_API_KEY2": status(cfg.OpenAI.APIKey),
		"EMAIL_USER":      status(cfg.SMTP.User),
		"EMAIL_PASSWORD":  status(cfg.SMTP.Password),
		"NODE_ENV":        os.Getenv("NODE_ENV"),
	}
}
