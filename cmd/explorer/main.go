package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aavetx/internal/application"
	"aavetx/internal/chains"
	"aavetx/internal/config"
	"aavetx/internal/infrastructure/kafka"
	"aavetx/internal/infrastructure/logging"
	"aavetx/internal/infrastructure/mysql"
	"aavetx/internal/infrastructure/redis"
	"aavetx/internal/infrastructure/sqlite"
	"aavetx/internal/infrastructure/subgraph"
	"aavetx/internal/infrastructure/telemetry"
	"aavetx/internal/interfaces/httpapi"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

type auditStore interface {
	application.LookupSink
	httpapi.LookupAudit
	httpapi.Pinger
	io.Closer
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logCloser, err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		log.Fatalf("logging error: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	shutdownTracing, err := telemetry.InitTracer(context.Background(), "aavetx-explorer", version, cfg.OtelEndpoint)
	if err != nil {
		slog.Warn("tracing disabled", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			slog.Warn("tracing shutdown error", "err", err)
		}
	}()

	mode, err := application.ParseMode(cfg.ResolveMode)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	registry := chains.Default()
	metrics := httpapi.NewMetrics()
	client := subgraph.NewClient(subgraph.Config{
		Timeout: cfg.FetchTimeout,
		Retries: int(cfg.FetchRetries),
		Backoff: cfg.RetryBackoff,
	})
	resolver, err := application.NewResolver(registry, client, metrics, application.ResolverConfig{
		Mode:    mode,
		Timeout: cfg.ResolveTimeout,
	})
	if err != nil {
		log.Fatalf("resolver error: %v", err)
	}

	var (
		sinks     []application.LookupSink
		history   httpapi.LookupHistory
		audit     httpapi.LookupAudit
		readiness = make(map[string]httpapi.Pinger)
	)

	if cfg.RedisAddr != "" {
		redisHistory, err := redis.NewHistory(redis.HistoryConfig{Addr: cfg.RedisAddr, Size: cfg.HistorySize})
		if err != nil {
			slog.Warn("lookup history disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer redisHistory.Close()
			sinks = append(sinks, redisHistory)
			history = redisHistory
			readiness[redisHistory.Name()] = redisHistory
		}
	}

	if store, err := openAuditStore(cfg); err != nil {
		log.Fatalf("audit store error: %v", err)
	} else if store != nil {
		defer store.Close()
		sinks = append(sinks, store)
		audit = store
		readiness["audit"] = store
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			log.Fatalf("kafka error: %v", err)
		}
		defer producer.Close()
		sinks = append(sinks, producer)
	}

	explorer, err := application.NewExplorer(resolver, sinks...)
	if err != nil {
		log.Fatalf("explorer error: %v", err)
	}

	httpServer, err := httpapi.NewServer(cfg, httpapi.Dependencies{
		Lookups:   explorer,
		Registry:  registry,
		History:   history,
		Audit:     audit,
		Readiness: readiness,
		Metrics:   metrics,
	}, httpapi.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})
	if err != nil {
		log.Fatalf("http server error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("http server listening", "addr", cfg.HTTPAddr, "mode", mode, "chains", registry.Len(), "sinks", len(sinks))
	if err := httpServer.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("http server error", "err", err)
	}
}

// openAuditStore prefers MySQL when a DSN is configured. It returns nil
// when neither store is configured.
func openAuditStore(cfg config.Config) (auditStore, error) {
	switch {
	case cfg.HistoryDSN != "":
		return mysql.NewRepository(cfg.HistoryDSN)
	case cfg.HistoryDB != "":
		return sqlite.NewRepository(cfg.HistoryDB)
	}
	return nil, nil
}
