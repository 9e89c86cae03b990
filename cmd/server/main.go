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

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"siscof/internal/access"
	"siscof/internal/audit"
	"siscof/internal/hierarchy"
	jwttoken "siscof/internal/jwt_token"
	"siscof/internal/members"
	"siscof/internal/platform/config"
	"siscof/internal/platform/httpserver"
	"siscof/internal/platform/logger"
	platformredis "siscof/internal/platform/redis"
	"siscof/internal/regionalscope"
	"siscof/internal/roles"
	rolesmetrics "siscof/internal/roles/metrics"
	httptransport "siscof/internal/transport/http"
	txpkg "siscof/pkg/platform/tx"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db          *sql.DB
		unitStore   hierarchy.Store
		roleStore   roles.Store
		scopeStore  regionalscope.Store
		memberStore members.Store
		auditStore  audit.Store
		runner      txRunner = txpkg.NopRunner{}
	)

	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		unitStore = hierarchy.NewPostgres(db)
		roleStore = roles.NewPostgres(db)
		scopeStore = regionalscope.NewPostgres(db)
		memberStore = members.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		runner = txpkg.NewRunner(db)
		log.Info("using postgres storage")
	} else {
		unitStore = hierarchy.NewInMemoryStore()
		roleStore = roles.NewInMemoryStore()
		scopeStore = regionalscope.NewInMemoryStore()
		memberStore = members.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		scopeStore = regionalscope.NewRedis(redisClient.Client)
		log.Info("using redis for regional scopes")
	}

	publisher := audit.NewPublisher(auditStore)
	evaluator := access.NewEvaluator(roleStore, unitStore, scopeStore, access.WithLogger(log))

	unitSvc := hierarchy.NewService(unitStore, evaluator, publisher, runner,
		hierarchy.WithLogger(log))
	roleSvc := roles.NewService(roleStore, unitStore, evaluator, publisher, runner,
		roles.WithLogger(log),
		roles.WithMetrics(rolesmetrics.New()))
	scopeSvc := regionalscope.NewService(scopeStore, roleStore, evaluator, publisher, runner,
		regionalscope.WithLogger(log))
	memberSvc := members.NewService(memberStore, evaluator,
		members.WithLogger(log))

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:       log,
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		AdminToken:   cfg.AdminToken,
		Units:        httptransport.NewUnitHandler(unitSvc, log),
		Roles:        httptransport.NewRoleHandler(roleSvc, log),
		Access:       httptransport.NewAccessHandler(evaluator, log),
		Scopes:       httptransport.NewScopeHandler(scopeSvc, log),
		Members:      httptransport.NewMemberHandler(memberSvc, log),
		Audit:        httptransport.NewAuditHandler(publisher, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting siscof", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	// The audit outbox only exists on postgres; Kafka without a database
	// has nothing to drain.
	if len(cfg.KafkaBrokers) > 0 && db != nil {
		kafkaClient, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.KafkaBrokers...),
			kgo.ProducerLinger(50*time.Millisecond),
		)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaClient.Close()

		if err := audit.EnsureTopic(ctx, kafkaClient, 3); err != nil {
			return err
		}
		worker := audit.NewOutboxWorker(db, kafkaClient, log)
		g.Go(func() error {
			if err := worker.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("outbox worker: %w", err)
			}
			return nil
		})
		log.Info("audit outbox worker started", "brokers", cfg.KafkaBrokers)
	}

	return g.Wait()
}
