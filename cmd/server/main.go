// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	"github.com/unclebandit/voicecampaign-backend/internal/auth"
	"github.com/unclebandit/voicecampaign-backend/internal/cache"
	"github.com/unclebandit/voicecampaign-backend/internal/config"
	"github.com/unclebandit/voicecampaign-backend/internal/controller"
	"github.com/unclebandit/voicecampaign-backend/internal/db"
	"github.com/unclebandit/voicecampaign-backend/internal/handler"
	"github.com/unclebandit/voicecampaign-backend/internal/harness"
	"github.com/unclebandit/voicecampaign-backend/internal/logger"
	"github.com/unclebandit/voicecampaign-backend/internal/queue"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
	"github.com/unclebandit/voicecampaign-backend/internal/seed"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.CheckServing()
	}
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	store, conn, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	var dir audience.Directory = audience.NewDemoDirectory()
	if conn != nil {
		defer conn.Close()
		contacts := &repository.ContactRepository{DB: conn}
		if cfg.SeedDemoData {
			if _, err := seed.LoadContacts(ctx, contacts, log); err != nil {
				return err
			}
		}
		dir = contacts
	}

	if cfg.RedisURL != "" {
		rc := cache.NewRedisCache(cfg.RedisURL, "voicecampaign:")
		if err := rc.Ping(ctx); err != nil {
			log.Warn("⚠️ redis unavailable, campaign cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			store.Campaigns = &repository.CachedCampaignRepository{
				Inner:  store.Campaigns,
				Cache:  rc,
				TTL:    cfg.CacheTTL,
				Logger: log,
			}
			log.Info("campaign cache enabled", zap.Duration("ttl", cfg.CacheTTL))
		}
	}

	if cfg.SeedDemoData {
		res, err := seed.Load(ctx, store, log)
		if err != nil {
			return err
		}
		if !res.Skipped {
			log.Info("🌱 demo data loaded", zap.Int("campaigns", res.Campaigns), zap.Int("calls", res.CallRecords))
		}
	}

	q, closeQueue, err := openQueue(cfg, log)
	if err != nil {
		return err
	}
	defer closeQueue()
	if err := queue.StartAuditSubscriber(q, log); err != nil {
		return err
	}

	if cfg.UsesDemoJWTSecret() {
		log.Warn("⚠️ JWT_SECRET not set, signing tokens with the demo secret")
	}
	if len(cfg.AllowedOrigins) == 0 {
		log.Info("test calls accept same-origin browsers only; set ALLOWED_ORIGINS to widen")
	}
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	campaigns := service.NewCampaignService(store.Campaigns, dir, q, log)
	calls := service.NewCallHistoryService(store.CallHistory, store.Campaigns, q, log)
	reporting := &service.ReportingService{CampaignRepo: store.Campaigns, CallHistoryRepo: store.CallHistory}

	// With the in-memory queue there is no separate worker process, so call
	// results published in-process are recorded here.
	if mem, ok := q.(*queue.InMemoryQueue); ok {
		if err := mem.Subscribe(queue.TopicCallResults, service.NewWorker(calls, nil, log).Handle); err != nil {
			return err
		}
	}

	var model harness.ChatModel
	if gm, err := harness.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err != nil {
		log.Warn("⚠️ test calls disabled until GEMINI_API_KEY is set", zap.Error(err))
	} else {
		model = gm
	}

	router := handler.NewRouter(handler.Controllers{
		Campaigns:   &controller.CampaignController{CampaignService: campaigns, ReportingService: reporting, Logger: log},
		CallHistory: &controller.CallHistoryController{CallHistoryService: calls, Logger: log},
		Auth:        &controller.AuthController{AuthService: &service.AuthService{UserRepo: store.Users, Issuer: issuer}, Logger: log},
		Reporting:   &controller.ReportingController{ReportingService: reporting, Audience: dir, Logger: log},
		Harness: &controller.HarnessController{
			CampaignService: campaigns,
			Audience:        dir,
			Model:           model,
			SilenceDelay:    cfg.HarnessSilenceDelay,
			ModelTimeout:    cfg.HarnessModelTimeout,
			Upgrader: websocket.Upgrader{
				ReadBufferSize:  1024,
				WriteBufferSize: 1024,
				CheckOrigin:     controller.OriginChecker(cfg.AllowedOrigins),
			},
			Logger: log,
		},
	}, issuer, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Server running", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the postgres store when a database is configured and the
// in-memory store otherwise, in which case conn is nil.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repository.Store, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Info("using in-memory store")
		return repository.NewMemoryStore(), nil, nil
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	log.Info("✅ Connected to PostgreSQL")
	return repository.NewPostgresStore(conn), conn, nil
}

func openQueue(cfg *config.Config, log *zap.Logger) (queue.Queue, func(), error) {
	if cfg.AMQPURL == "" {
		q := queue.NewInMemoryQueue(log)
		return q, q.Wait, nil
	}
	q, err := queue.DialAMQP(cfg.AMQPURL, log)
	if err != nil {
		return nil, nil, err
	}
	go func() {
		if amqpErr, ok := <-q.NotifyClose(); ok && amqpErr != nil {
			log.Error("❌ RabbitMQ connection lost", zap.Error(amqpErr))
		}
	}()
	return q, func() { q.Close() }, nil
}
