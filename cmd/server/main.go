package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"caseflow/internal/audit"
	"caseflow/internal/batch"
	batchhandler "caseflow/internal/batch/handler"
	casehandler "caseflow/internal/casework/handler"
	"caseflow/internal/casework/hooks"
	caseservice "caseflow/internal/casework/service"
	casestore "caseflow/internal/casework/store"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/httpserver"
	"caseflow/internal/platform/logger"
	"caseflow/internal/platform/metrics"
	platformredis "caseflow/internal/platform/redis"
	"caseflow/internal/platform/token"
)

// main wires the dependencies and keeps the lifecycle small. Business logic
// lives in the internal packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("caseflow exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m := metrics.New()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var checkpoints batch.CheckpointStore = batch.NewMemoryCheckpoints()
	if redisClient != nil {
		defer redisClient.Close()
		checkpoints = batch.NewRedisCheckpoints(redisClient)
		log.Info("batch checkpoints backed by redis")
	} else {
		log.Warn("redis not configured, batch checkpoints are in-memory only")
	}

	registry := hooks.NewRegistry()
	registerCaseHooks(registry, log)

	cases := caseservice.New(
		casestore.NewPostgres(db),
		audit.NewPostgres(db),
		hooks.NewDispatcher(registry, log, m),
		newCasePostgresTx(db),
		log,
		m,
	)
	processor := batch.NewProcessor(batch.NewHTTPPlatform(cfg.Platform), checkpoints, log, m)

	validator := token.NewValidator(cfg.JWTSigningKey)

	router := chi.NewRouter()
	router.Get("/healthz", handleHealth(db, redisClient))
	router.Handle("/metrics", promhttp.Handler())
	casehandler.New(cases, log, validator).Register(router)
	batchhandler.New(processor, log, validator).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaClient.Close()

		relay := audit.NewRelay(db, kafkaClient, cfg.Kafka.AuditTopic, log, m)
		if err := relay.EnsureTopic(ctx, 3); err != nil {
			return err
		}
		g.Go(func() error {
			log.Info("audit relay started", "topic", cfg.Kafka.AuditTopic)
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		log.Warn("kafka not configured, audit entries stay in the outbox table")
	}

	g.Go(func() error {
		log.Info("caseflow listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func handleHealth(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			http.Error(w, `{"status":"unhealthy","component":"postgres"}`, http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, `{"status":"unhealthy","component":"redis"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
