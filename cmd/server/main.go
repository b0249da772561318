package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"commune/internal/audit"
	"commune/internal/bank"
	cataloghandler "commune/internal/catalog/handler"
	catalogmetrics "commune/internal/catalog/metrics"
	catalogservice "commune/internal/catalog/service"
	catalogstore "commune/internal/catalog/store"
	"commune/internal/httpapi"
	"commune/internal/jwttoken"
	markethandler "commune/internal/market/handler"
	marketmetrics "commune/internal/market/metrics"
	marketservice "commune/internal/market/service"
	marketstore "commune/internal/market/store"
	membershiphandler "commune/internal/membership/handler"
	membershipmetrics "commune/internal/membership/metrics"
	membershipservice "commune/internal/membership/service"
	membershipstore "commune/internal/membership/store"
	"commune/internal/platform/config"
	"commune/internal/platform/httpserver"
	"commune/internal/platform/kafka"
	"commune/internal/platform/logger"
	"commune/internal/platform/postgres"
	platformredis "commune/internal/platform/redis"
	proposalhandler "commune/internal/proposal/handler"
	proposalmetrics "commune/internal/proposal/metrics"
	proposalservice "commune/internal/proposal/service"
	proposalstore "commune/internal/proposal/store"
	"commune/pkg/platform/tx"
)

// main wires the deployment: store flavor by POSTGRES_DSN, optional Redis
// approval cache, optional Kafka audit sink. Business logic lives in the
// internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var (
		db          *sql.DB
		storeTx     tx.StoreTx
		markets     marketservice.Store
		memberships membershipservice.Store
		items       catalogservice.Store
		proposals   proposalservice.Store
		ledger      bank.Bank
	)

	if cfg.PostgresDSN != "" {
		var err error
		db, err = postgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			log.Error("schema setup failed", "error", err)
			os.Exit(1)
		}

		storeTx = tx.NewPostgres(db)
		markets = marketstore.NewPostgres(db)
		items = catalogstore.NewPostgres(db)
		proposals = proposalstore.NewPostgres(db)
		ledger = bank.NewPostgres(db)

		pgMemberships := membershipstore.NewPostgres(db)
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis connect failed", "error", err)
			os.Exit(1)
		}
		if redisClient != nil {
			defer redisClient.Close()
			memberships = membershipstore.NewCached(pgMemberships, redisClient)
			log.Info("membership approval cache enabled")
		} else {
			memberships = pgMemberships
		}
	} else {
		log.Info("no POSTGRES_DSN set, using the in-memory deployment")
		storeTx = tx.NewInMemory()
		markets = marketstore.NewInMemory()
		memberships = membershipstore.NewInMemory()
		items = catalogstore.NewInMemory()
		proposals = proposalstore.NewInMemory()
		ledger = bank.NewInMemory()
	}

	var auditor audit.Publisher = audit.NewLogPublisher(log)
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		var err error
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		auditor = audit.NewKafkaPublisher(producer, log)
		log.Info("audit events publishing to kafka", "topic", cfg.KafkaTopic)
	}

	marketSvc := marketservice.New(markets, storeTx,
		marketservice.WithLogger(log),
		marketservice.WithAuditPublisher(auditor),
		marketservice.WithMetrics(marketmetrics.New()),
	)
	membershipSvc := membershipservice.New(memberships, markets, ledger, storeTx,
		membershipservice.WithLogger(log),
		membershipservice.WithAuditPublisher(auditor),
		membershipservice.WithMetrics(membershipmetrics.New()),
	)
	catalogSvc := catalogservice.New(items, marketSvc, membershipSvc, ledger, storeTx,
		catalogservice.WithLogger(log),
		catalogservice.WithAuditPublisher(auditor),
		catalogservice.WithMetrics(catalogmetrics.New()),
	)
	proposalSvc := proposalservice.New(proposals, marketSvc, membershipSvc, ledger, storeTx,
		proposalservice.WithLogger(log),
		proposalservice.WithAuditPublisher(auditor),
		proposalservice.WithMetrics(proposalmetrics.New()),
	)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "commune")

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:         log,
		TokenValidator: tokens,
		Handlers: []httpapi.Registrar{
			markethandler.New(marketSvc, log),
			membershiphandler.New(membershipSvc, log),
			cataloghandler.New(catalogSvc, log),
			proposalhandler.New(proposalSvc, log),
		},
		Healthcheck: func(r *http.Request) error {
			if db != nil {
				return db.PingContext(r.Context())
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting commune", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
