// cmd/addon-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kshehadeh/atlassian-addon-helper/internal/auth"
	"github.com/kshehadeh/atlassian-addon-helper/internal/descriptor"
	"github.com/kshehadeh/atlassian-addon-helper/internal/lifecycle"
	"github.com/kshehadeh/atlassian-addon-helper/internal/metrics"
	"github.com/kshehadeh/atlassian-addon-helper/internal/webhook"
	"github.com/kshehadeh/atlassian-addon-helper/pkg/config"
	"github.com/kshehadeh/atlassian-addon-helper/pkg/db"
	"github.com/kshehadeh/atlassian-addon-helper/pkg/logger"
	"github.com/kshehadeh/atlassian-addon-helper/pkg/middleware"
	"github.com/kshehadeh/atlassian-addon-helper/pkg/tenants"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	metrics.Register()

	var store tenants.Store
	if pool := db.MustConnect(cfg, log); pool != nil {
		if err := tenants.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		store = tenants.NewPostgresStore(pool, cfg.AddonKey, log)
	} else if rdb := db.MustRedis(cfg, log); rdb != nil {
		store = tenants.NewRedisStore(rdb, cfg.AddonKey, log)
	} else {
		store = tenants.NewMemoryStore(log)
	}

	var verifierOpts []auth.Option
	verifierOpts = append(verifierOpts, auth.WithClockSkew(cfg.JWTClockSkew))
	if cfg.SkipQSHVerification {
		verifierOpts = append(verifierOpts, auth.WithoutQSHVerification())
	}
	verifier := auth.NewVerifier(store, log, verifierOpts...)

	lcSvc := lifecycle.NewService(store, log)
	lcHandler := lifecycle.NewHandler(lcSvc, log)

	dispatcher, err := webhook.NewDispatcher(log, []webhook.Registration{
		{Event: "jira:issue_created", Handler: logEvent(log, "issue created")},
		{Event: "jira:issue_updated", Handler: logEvent(log, "issue updated")},
	})
	if err != nil {
		log.Fatalw("webhook registry", "err", err)
	}

	base, err := descriptor.LoadBase(cfg)
	if err != nil {
		log.Fatalw("descriptor base", "err", err)
	}
	desc, err := descriptor.Assemble(base, lcHandler.Fragment(), dispatcher.Fragment())
	if err != nil {
		log.Fatalw("descriptor assemble", "err", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing(cfg))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	descriptor.RegisterRoutes(r, log, desc)
	lcHandler.RegisterRoutes(r)
	webhook.RegisterRoutes(r, log, dispatcher, middleware.WebhookAuth(verifier, log))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("addon-service listening", "addr", cfg.HTTPAddr, "addon", cfg.AddonKey)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("addon-service stopped")
}

func logEvent(log logger.Sugared, what string) webhook.Handler {
	return func(ctx context.Context, claims auth.Claims, payload []byte) error {
		log.Infow(what, "tenant", claims.TenantKey, "user", claims.UserKey, "bytes", len(payload))
		return nil
	}
}
