// main wires high-level dependencies, exposes the HTTP router, and
// keeps the server lifecycle small. Business logic lives in the
// internal services packages.
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

	"golang.org/x/sync/errgroup"

	"streamlog/internal/alerts/dedup"
	alertsEngine "streamlog/internal/alerts/engine"
	alertsHandler "streamlog/internal/alerts/handler"
	"streamlog/internal/alerts/registry"
	alertsStore "streamlog/internal/alerts/store"
	alertsMemory "streamlog/internal/alerts/store/memory"
	alertsPostgres "streamlog/internal/alerts/store/postgres"
	"streamlog/internal/alerts/triggers"
	"streamlog/internal/alerts/types"
	jwttoken "streamlog/internal/jwt_token"
	"streamlog/internal/platform/config"
	"streamlog/internal/platform/httpserver"
	"streamlog/internal/platform/kafka"
	"streamlog/internal/platform/logger"
	"streamlog/internal/platform/metrics"
	platformPostgres "streamlog/internal/platform/postgres"
	platformRedis "streamlog/internal/platform/redis"
	platformSMTP "streamlog/internal/platform/smtp"
	"streamlog/internal/stream/connectors"
	streamHandler "streamlog/internal/stream/handler"
	"streamlog/internal/stream/service"
	streamStore "streamlog/internal/stream/store"
	streamMemory "streamlog/internal/stream/store/memory"
	streamPostgres "streamlog/internal/stream/store/postgres"
	httptransport "streamlog/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		records streamStore.RecordStore
		rules   streamStore.RuleStore
		alerts  alertsStore.Store
	)
	if cfg.Postgres.DSN != "" {
		db, err := platformPostgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		recordStore := streamPostgres.NewRecordStore(db)
		ruleStore := streamPostgres.NewRuleStore(db)
		alertStore := alertsPostgres.New(db)
		for _, ensure := range []func(context.Context) error{
			recordStore.EnsureSchema,
			ruleStore.EnsureSchema,
			alertStore.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				return err
			}
		}
		records, rules, alerts = recordStore, ruleStore, alertStore
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		records, rules, alerts = streamMemory.NewRecordStore(), streamMemory.NewRuleStore(), alertsMemory.New()
	}

	var deduper dedup.Deduper = dedup.NewMemory(cfg.Stream.DedupTTL)
	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		deduper = dedup.NewRedis(redisClient.Client, cfg.Stream.DedupTTL)
	}

	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
	}

	mailer := platformSMTP.New(cfg.SMTP)

	reg := registry.New(log)
	for _, t := range []registry.Trigger{
		triggers.Author{},
		triggers.Action{},
		triggers.Context{},
	} {
		if err := reg.RegisterTrigger(t); err != nil {
			return err
		}
	}
	// Optional alert types register only when their dependency is
	// configured; the registry rejects them otherwise.
	_ = reg.RegisterAlertType(types.NewNone())
	_ = reg.RegisterAlertType(types.NewHighlight(records))
	_ = reg.RegisterAlertType(types.NewWebhook(nil))
	if mailer != nil {
		_ = reg.RegisterAlertType(types.NewEmail(mailer))
	}
	if producer != nil {
		_ = reg.RegisterAlertType(types.NewKafka(producer))
	}

	engine, err := alertsEngine.New(alerts, reg,
		alertsEngine.WithLogger(log),
		alertsEngine.WithMetrics(m),
		alertsEngine.WithDeduper(deduper),
		alertsEngine.WithSendTimeout(cfg.Stream.AlertSendTimeout),
	)
	if err != nil {
		return err
	}

	connReg := connectors.New(log)
	for _, c := range connectors.Builtin() {
		if err := connReg.Register(c); err != nil {
			return err
		}
	}

	stream, err := service.New(records, rules,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithNotifier(engine),
		service.WithConnectors(connReg),
		service.WithDevMode(cfg.Stream.DevMode),
		service.WithCronTracking(cfg.Stream.CronTracking),
		service.WithBacktraces(cfg.Stream.Backtraces),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "streamlog", "streamlog-admin")

	router := httptransport.NewRouter(
		streamHandler.New(stream, records, rules, connReg, log, jwtService, cfg.Server.IngestKeyHash),
		alertsHandler.New(alerts, reg, log, jwtService),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting streamlog", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
