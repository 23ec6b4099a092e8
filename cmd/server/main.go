package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"donationRegistry/internal/app"
	"donationRegistry/internal/auth"
	"donationRegistry/internal/config"
	"donationRegistry/internal/db"
	grpcserver "donationRegistry/internal/grpc"
	"donationRegistry/internal/logging"
	"donationRegistry/internal/metrics"
	"donationRegistry/internal/web"
	"donationRegistry/repository"
)

func main() {
	cfg, err := config.LoadForEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	logger.WithField("config", cfg.String()).Info("configuration loaded")

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.WithError(err).Error("close db")
		}
	}()
	if v, err := db.CurrentVersion(d); err == nil {
		logger.WithField("schema_version", v).Info("database ready")
	}

	users := repository.NewUserRepository(d)
	donations := repository.NewDonationRepository(d)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := users.EnsureDefaultAdmin(ctx); err != nil {
		return err
	}

	sessions, err := auth.NewManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, auth.WithSecureCookie(cfg.Auth.CookieSecure))
	if err != nil {
		return err
	}
	go sessions.RunSweeper(ctx, time.Minute)

	m := metrics.New()
	srv, err := web.NewServer(web.Options{
		Sessions:           sessions,
		Users:              users,
		Service:            app.NewService(users, donations, logger, m),
		DB:                 d,
		Log:                logger,
		Metrics:            m,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
		TrustProxy:         cfg.HTTP.TrustProxy,
	})
	if err != nil {
		return err
	}
	go srv.RunMaintenance(ctx, 5*time.Minute)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTP.Address).Info("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var grpcShutdown func(context.Context) error
	if cfg.GRPC.Address != "" {
		grpcShutdown, err = grpcserver.StartGRPC(cfg.GRPC.Address, grpcserver.Options{
			Sessions: sessions,
			Store:    d,
			Log:      logger,
		})
		if err != nil {
			return err
		}
		logger.WithField("addr", cfg.GRPC.Address).Info("grpc health endpoint listening")
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if grpcShutdown != nil {
		if err := grpcShutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("grpc shutdown")
		}
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	logger.Info("stopped")
	return nil
}
