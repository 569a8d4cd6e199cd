package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cataloghandler "medidrop/internal/catalog/handler"
	catalogservice "medidrop/internal/catalog/service"
	catalogstore "medidrop/internal/catalog/store"
	compliancehandler "medidrop/internal/compliance/handler"
	"medidrop/internal/demo"
	"medidrop/internal/docstore"
	"medidrop/internal/platform/config"
	"medidrop/internal/platform/httpserver"
	"medidrop/internal/platform/logger"
	"medidrop/internal/platform/middleware"
	"medidrop/internal/platform/postgres"
	platformredis "medidrop/internal/platform/redis"
	prescriptionhandler "medidrop/internal/prescription/handler"
	prescriptionservice "medidrop/internal/prescription/service"
	prescriptionstore "medidrop/internal/prescription/store"
	"medidrop/internal/registry"
	registrycache "medidrop/internal/registry/cache"
	"medidrop/internal/rules"
	sellerhandler "medidrop/internal/seller/handler"
	sellerservice "medidrop/internal/seller/service"
	sellerstore "medidrop/internal/seller/store"
	"medidrop/pkg/platform/audit"
	auditkafka "medidrop/pkg/platform/audit/kafka"
	auditmemory "medidrop/pkg/platform/audit/store/memory"
	auditpostgres "medidrop/pkg/platform/audit/store/postgres"
	auditworker "medidrop/pkg/platform/audit/worker"

	platformjwt "medidrop/internal/platform/jwt"
)

const registryCacheTTL = 15 * time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, in-memory otherwise.
	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	var (
		sellers       sellerstore.Store
		listings      catalogstore.Store
		prescriptions prescriptionstore.Store
		auditStore    audit.Store
	)
	if db != nil {
		sellers = sellerstore.NewPostgres(db)
		listings = catalogstore.NewPostgres(db)
		prescriptions = prescriptionstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
		log.Info("using postgres stores")
	} else {
		memSellers := sellerstore.NewInMemory()
		memListings := catalogstore.NewInMemory()
		if cfg.SeedDemo {
			demo.Seed(memSellers, memListings)
			log.Info("demo dataset seeded")
		}
		sellers = memSellers
		listings = memListings
		prescriptions = prescriptionstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	// Audit fan-out to Kafka when brokers are configured.
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := auditkafka.New(ctx, auditStore, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			return err
		}
		defer publisher.Close(context.Background())
		auditStore = publisher
		log.Info("audit entries fan out to kafka", "topic", cfg.Kafka.AuditTopic)
	}
	auditLog := audit.NewLog(auditStore)

	// Async channel for blocked-purchase entries so the gate does not wait
	// on the audit sink.
	denials := make(chan audit.Entry, 256)
	worker := auditworker.New(auditLog, denials, log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	// Country rule table: file when configured, built-in defaults otherwise.
	var table *rules.Table
	if cfg.RulesPath != "" {
		table, err = rules.LoadFile(cfg.RulesPath)
		if err != nil {
			return err
		}
		log.Info("country rules loaded", "path", cfg.RulesPath, "rules", table.Len())
	} else {
		table = rules.MustSeedTable()
		log.Info("using built-in country rules", "rules", table.Len())
	}

	// Registry checker with timeout and optional redis-backed cache. The
	// static checker knows no licenses by default; every check then routes
	// to manual review.
	static := registry.NewStaticChecker()
	if cfg.SeedDemo {
		for _, rec := range demo.RegistryRecords() {
			static.Add(rec)
		}
	}
	var checker registry.Checker = registry.WithTimeout(static, cfg.RegistryTimeout)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var cache registrycache.Cache
	if redisClient != nil {
		defer redisClient.Close()
		cache = registrycache.NewRedis(redisClient.Client, registryCacheTTL)
		log.Info("registry cache backed by redis")
	} else {
		cache = registrycache.NewInMemory(registryCacheTTL)
	}
	checker = registrycache.NewCachedChecker(checker, cache)

	docs := docstore.NewInMemory()

	// Services.
	sellerEngine := sellerservice.NewEngine(sellers, auditLog, docs, checker, log)
	catalogSvc := catalogservice.New(listings, sellerEngine, table, auditLog, denials, log)
	sellerEngine.SetListingSyncer(catalogSvc)
	prescriptionSvc := prescriptionservice.New(prescriptions, catalogSvc, docs, auditLog, log)

	// Handlers.
	tokens := platformjwt.NewService(cfg.JWTSigningKey, 24*time.Hour)
	sellerH := sellerhandler.New(sellerEngine, log)
	catalogH := cataloghandler.New(catalogSvc, log)
	prescriptionH := prescriptionhandler.New(prescriptionSvc, log)
	complianceH := compliancehandler.New(auditLog, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, log))
		sellerH.Register(r)
		catalogH.Register(r)
		prescriptionH.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, log))
		sellerH.RegisterAdmin(r)
		catalogH.RegisterAdmin(r)
		prescriptionH.RegisterAdmin(r)
		complianceH.RegisterAdmin(r)
	})

	srv := httpserver.New(cfg.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
