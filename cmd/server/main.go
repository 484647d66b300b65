// main wires configuration, storage, the audit pipeline and the domain
// services, then runs the HTTP server until interrupted. Business logic lives
// in the internal service packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"provena/internal/audit"
	"provena/internal/audit/publisher"
	auditsink "provena/internal/audit/sink"
	auditfanout "provena/internal/audit/store/fanout"
	auditmemory "provena/internal/audit/store/memory"
	auditpostgres "provena/internal/audit/store/postgres"
	"provena/internal/bulk"
	bulkmetrics "provena/internal/bulk/metrics"
	"provena/internal/investor"
	"provena/internal/jwttoken"
	kycmetrics "provena/internal/kyc/metrics"
	kycqueue "provena/internal/kyc/queue"
	kycservice "provena/internal/kyc/service"
	"provena/internal/notify"
	"provena/internal/platform/config"
	"provena/internal/platform/httpserver"
	kafkaproducer "provena/internal/platform/kafka/producer"
	"provena/internal/platform/logger"
	"provena/internal/platform/middleware"
	"provena/internal/platform/postgres"
	platformredis "provena/internal/platform/redis"
	recordmetrics "provena/internal/record/metrics"
	"provena/internal/record/policy"
	recordservice "provena/internal/record/service"
	recordstore "provena/internal/record/store"
	"provena/internal/roles"
	httptransport "provena/internal/transport/http"
	"provena/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()

	// Record storage: Postgres when configured, in-memory otherwise.
	var store recordservice.Store
	var auditPrimary audit.Store = auditmemory.NewInMemoryStore()
	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := migrations.Apply(ctx, pool); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		store = recordstore.NewPostgres(pool)

		db, err := postgres.NewDB(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres audit connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		auditPrimary = auditpostgres.New(db)
	} else {
		log.Warn("PROVENA_POSTGRES_DSN not set, using in-memory record store")
		store = recordstore.NewInMemory()
	}

	// Audit pipeline: primary store plus an optional Kafka sink.
	var sinks []auditsink.Appender
	if len(cfg.Kafka.SeedBrokers) > 0 {
		producer, err := kafkaproducer.New(ctx, cfg.Kafka.SeedBrokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("kafka producer setup failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		sinks = append(sinks, auditsink.NewKafka(producer, log))
	}
	auditStore := auditfanout.New(auditPrimary, sinks...)
	auditor := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(1024),
		publisher.WithLogger(log),
	)
	defer auditor.Close()

	// Review queue: Redis when configured, in-memory otherwise.
	var queue kycqueue.Queue = kycqueue.NewMemory()
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		queue = kycqueue.NewRedis(redisClient.Client)
	} else {
		log.Warn("PROVENA_REDIS_URL not set, using in-memory review queue")
	}

	fields := policy.DefaultTable()
	records := recordservice.New(store, fields,
		recordservice.WithLogger(log),
		recordservice.WithAuditPublisher(auditor),
		recordservice.WithMetrics(recordmetrics.New()),
		recordservice.WithReasonPolicy(policy.NewReasonPolicy(fields, cfg.ReasonMinLength, 0)),
	)

	dispatcher := notify.NewMemoryDispatcher()
	emailer := notify.NewMemoryEmailer()
	groups := notify.NewMemoryAccessGroups()

	reviews := kycservice.New(records, queue,
		kycservice.WithLogger(log),
		kycservice.WithAuditPublisher(auditor),
		kycservice.WithMetrics(kycmetrics.New()),
		kycservice.WithNotifications(dispatcher, emailer, groups),
	)

	bulkService := bulk.New(bulk.NewRunner(cfg.BulkConcurrency), reviews, records,
		bulk.WithLogger(log),
		bulk.WithAuditPublisher(auditor),
		bulk.WithMetrics(bulkmetrics.New()),
		bulk.WithDispatcher(dispatcher),
	)

	roleService := roles.New(roles.NewMemoryDirectory(),
		roles.WithLogger(log),
		roles.WithAuditPublisher(auditor),
	)

	investors := investor.New(records, investor.NewMemoryCredentials(),
		investor.WithLogger(log),
		investor.WithQueue(queue),
	)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Records:   records,
		Reviews:   reviews,
		Bulk:      bulkService,
		Roles:     roleService,
		Investors: investors,
		Audit:     auditStore,
		Tokens:    tokens,
		Auth:      middleware.RequireAuth(tokens, log),
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting provena", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
