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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mindengage-criteria/internal/api/http"
	auth "github.com/mind-engage/mindengage-criteria/internal/auth/middleware"
	"github.com/mind-engage/mindengage-criteria/internal/config"
	"github.com/mind-engage/mindengage-criteria/internal/criteria"
	"github.com/mind-engage/mindengage-criteria/internal/db"
	"github.com/mind-engage/mindengage-criteria/internal/grading"
	"github.com/mind-engage/mindengage-criteria/internal/lib/slogcustom"
	storage "github.com/mind-engage/mindengage-criteria/internal/storage"
	syncx "github.com/mind-engage/mindengage-criteria/internal/sync"
)

func main() {
	cfg := config.Load()
	log := slogcustom.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Error("db open failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Error("blob store", "path", cfg.BlobBasePath, "err", err)
		os.Exit(1)
	}
	events := syncx.NewEventRepo(dbh, cfg.SiteID)

	svc := criteria.NewService(criteria.NewSQLStore(dbh),
		criteria.WithPolicy(cfg.Criteria),
		criteria.WithEvents(events),
		criteria.WithLogger(log.With("component", "criteria")),
	)

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret,
		auth.WithAdmin(cfg.AdminUser, cfg.AdminPassHash),
		auth.WithDevLogin(cfg.Mode == config.ModeOffline),
	)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Auth:     authSvc,
		Criteria: svc,
		Results:  grading.NewSQLResultStore(dbh),
		Blobs:    bs,
		Events:   events,
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return dbh.PingContext(ctx)
		},
	}, cfg.EnableLocalAuth)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
