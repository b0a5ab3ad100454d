// Command server runs the aid ledger API. main builds the dependency graph
// from configuration and owns process lifecycle; business logic lives in the
// internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"aidledger/internal/authz"
	authhandler "aidledger/internal/authz/handler"
	"aidledger/internal/correlation"
	"aidledger/internal/events"
	"aidledger/internal/oracle"
	"aidledger/internal/platform/config"
	"aidledger/internal/platform/httpserver"
	"aidledger/internal/platform/logger"
	platformpg "aidledger/internal/platform/postgres"
	platformredis "aidledger/internal/platform/redis"
	"aidledger/internal/record"
	recordhandler "aidledger/internal/record/handler"
	recordmetrics "aidledger/internal/record/metrics"
	"aidledger/internal/supply"
	supplyhandler "aidledger/internal/supply/handler"
	httptransport "aidledger/internal/transport/http"
	"aidledger/internal/verification"
	verificationhandler "aidledger/internal/verification/handler"
	verificationmetrics "aidledger/internal/verification/metrics"
	"aidledger/pkg/platform/circuit"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.DevMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	capability, err := oracle.NewLocal()
	if err != nil {
		log.Error("failed to initialize decryption capability", "error", err)
		os.Exit(1)
	}
	decrypter := oracle.NewGuarded(capability, circuit.New("decryption-capability"), log)

	// Backing stores: in-memory unless Postgres/Redis are configured.
	var (
		recordStore       record.Store       = record.NewInMemoryStore()
		packageStore      supply.Store       = supply.NewInMemoryStore()
		verificationStore verification.Store = verification.NewInMemoryStore()
		corrStore         correlation.Store  = correlation.NewInMemoryStore()
		eventSink         events.Store       = events.NewInMemoryStore()
		healthChecks      []httptransport.HealthCheck
	)

	pool, err := platformpg.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		pgRecords := record.NewPostgres(pool)
		if err := pgRecords.Migrate(ctx); err != nil {
			log.Error("record store migration failed", "error", err)
			os.Exit(1)
		}
		recordStore = pgRecords

		pgPackages := supply.NewPostgres(pool)
		if err := pgPackages.Migrate(ctx); err != nil {
			log.Error("package store migration failed", "error", err)
			os.Exit(1)
		}
		packageStore = pgPackages

		pgVerifications := verification.NewPostgres(pool)
		if err := pgVerifications.Migrate(ctx); err != nil {
			log.Error("verification store migration failed", "error", err)
			os.Exit(1)
		}
		verificationStore = pgVerifications
		healthChecks = append(healthChecks, pool.Ping)

		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("failed to open event store connection", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		outbox := events.NewPostgres(db)
		if err := outbox.Migrate(ctx); err != nil {
			log.Error("event store migration failed", "error", err)
			os.Exit(1)
		}
		eventSink = outbox
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		corrStore = correlation.NewRedisStore(redisClient.Client)
		healthChecks = append(healthChecks, redisClient.Health)
	}

	var kafkaPub *events.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub, err = events.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaPub.Close()
		eventSink = kafkaPub
	}

	publisher := events.NewPublisher(eventSink, log, events.WithAsyncBuffer(256))
	defer publisher.Close()

	policy := authz.NewStaticPolicy()
	if cfg.DevMode {
		authz.SeedDevAgency(policy, log)
	}
	tokens := authz.NewTokenService(cfg.JWTSigningKey, cfg.TokenTTL)

	recordSvc := record.NewService(recordStore, capability, policy, publisher, log, recordmetrics.New())
	packageSvc := supply.NewService(packageStore, capability, policy, publisher, log)
	verificationSvc := verification.NewService(
		verificationStore, recordStore, packageStore, corrStore,
		decrypter, capability, policy, publisher, log, verificationmetrics.New(),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Records:       recordhandler.New(recordSvc, log),
		Packages:      supplyhandler.New(packageSvc, log),
		Verifications: verificationhandler.New(verificationSvc, log),
		Auth:          authhandler.New(policy, tokens, log),
		Validator:     tokens,
		Logger:        log,
		Health:        combineHealth(healthChecks),
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting aidledger", "addr", cfg.Addr, "dev_mode", cfg.DevMode)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server terminated", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// combineHealth folds the configured backend checks into one probe.
func combineHealth(checks []httptransport.HealthCheck) httptransport.HealthCheck {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
