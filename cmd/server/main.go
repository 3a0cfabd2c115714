// Command server runs the family property records service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	assethandler "heirloom/internal/asset/handler"
	assetservice "heirloom/internal/asset/service"
	assetstore "heirloom/internal/asset/store/asset"
	"heirloom/internal/audit"
	authhandler "heirloom/internal/auth/handler"
	authservice "heirloom/internal/auth/service"
	"heirloom/internal/auth/store/revocation"
	"heirloom/internal/auth/token"
	documenthandler "heirloom/internal/document/handler"
	documentservice "heirloom/internal/document/service"
	documentstore "heirloom/internal/document/store/document"
	identityhandler "heirloom/internal/identity/handler"
	identityservice "heirloom/internal/identity/service"
	userstore "heirloom/internal/identity/store/user"
	"heirloom/internal/platform/config"
	"heirloom/internal/platform/httpserver"
	"heirloom/internal/platform/logger"
	"heirloom/internal/platform/metrics"
	platformredis "heirloom/internal/platform/redis"
	"heirloom/internal/seed"
	transporthttp "heirloom/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		users     identityservice.UserStore
		assets    assetservice.Store
		documents documentservice.Store
		health    []transporthttp.HealthCheck
	)

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := applySchemas(ctx, pool); err != nil {
			return err
		}

		users = userstore.NewPostgres(pool)
		assets = assetstore.NewPostgres(pool)
		documents = documentstore.NewPostgres(pool)
		health = append(health, transporthttp.HealthCheck{Name: "postgres", Probe: pool.Ping})
		log.Info("using postgres stores")
	} else {
		users = userstore.NewInMemory()
		assets = assetstore.NewInMemory()
		documents = documentstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	// Revocation denylist: redis when available, postgres when only the
	// database is, in-memory as the single-process fallback.
	var denylist revocation.List
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	switch {
	case redisClient != nil:
		defer redisClient.Close()
		denylist = revocation.NewRedis(redisClient.Client)
		health = append(health, transporthttp.HealthCheck{Name: "redis", Probe: redisClient.Health})
		log.Info("using redis revocation list")
	case cfg.DatabaseURL != "":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := db.ExecContext(ctx, revocation.Schema); err != nil {
			return err
		}
		denylist = revocation.NewPostgres(db)
		log.Info("using postgres revocation list")
	default:
		denylist = revocation.NewInMemory()
		log.Info("using in-memory revocation list")
	}

	// Audit pipeline: non-blocking publisher drained by one worker.
	auditStore := audit.NewInMemoryStore(4096)
	publisher := audit.NewPublisher(1024)
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = worker.Run(ctx)
	}()

	identity := identityservice.New(users, log, identityservice.WithAuditPublisher(publisher))

	issuer, err := token.NewService(cfg.SessionSigningKey, cfg.SessionTTL)
	if err != nil {
		return err
	}

	auth := authservice.New(identity, issuer, log,
		authservice.WithRevocationList(denylist),
		authservice.WithNotifier(&logNotifier{logger: log}, cfg.AdminNotifyEmail),
		authservice.WithAuditPublisher(publisher),
	)

	assetSvc := assetservice.New(assets, identity, log,
		assetservice.WithMetrics(m),
		assetservice.WithAuditPublisher(publisher),
	)

	documentSvc := documentservice.New(documents, assetSvc, log,
		documentservice.WithAuditPublisher(publisher),
	)

	if cfg.SeedDemoData {
		if err := seed.Run(ctx, identity, assetSvc, log); err != nil {
			return err
		}
	}

	handler := transporthttp.New(transporthttp.Deps{
		Logger:     log,
		Auth:       authhandler.New(auth, log, m, cfg.CookieSecure),
		Assets:     assethandler.New(assetSvc, log),
		Persons:    identityhandler.New(identity, log),
		Documents:  documenthandler.New(documentSvc, log),
		Validator:  token.NewMiddlewareAdapter(issuer),
		Revocation: denylist,
		Health:     health,
	})

	server := httpserver.New(cfg.Addr, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-workerDone
	return nil
}

func applySchemas(ctx context.Context, pool *pgxpool.Pool) error {
	for _, schema := range []string{userstore.Schema, assetstore.Schema, documentstore.Schema} {
		if _, err := pool.Exec(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}

// logNotifier records forgot-password dispatches in the log. The real email
// channel is an external collaborator behind the same interface.
type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) NotifyPasswordReset(_ context.Context, adminEmail, username string) error {
	n.logger.Info("password reset requested",
		"notify", adminEmail,
		"username", username,
	)
	return nil
}
