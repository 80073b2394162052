package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gspeed-bit/invoica-backend/auth"
	"github.com/Gspeed-bit/invoica-backend/config"
	"github.com/Gspeed-bit/invoica-backend/mailer"
	"github.com/Gspeed-bit/invoica-backend/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("invoica"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	if err := run(lgr); err != nil {
		lgr.GetLogger("boot").Error("server exited", "error", err)
	}
}

func run(lgr *glog.BaseLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	defer bunDB.Close()

	if err := auth.RunMigrations(ctx, bunDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	repo := repository.NewRepositoryManager(bunDB)
	repo.MustValidate()

	notifier := mailer.New(cfg).WithLogger(lgr.GetLogger("mailer"))

	provider := auth.NewUserProvider(repo.Users()).
		WithLogger(lgr.GetLogger("auth:provider"))

	auther := auth.NewAuthenticator(provider, cfg).
		WithLogger(lgr.GetLogger("auth"))

	controller := auth.NewAuthController(
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(auther),
		auth.WithControllerNotifier(notifier),
		auth.WithControllerConfig(cfg),
		auth.WithControllerLogger(lgr.GetLogger("auth:ctrl")),
		auth.WithControllerDebug(cfg.IsDevelopment()),
	)

	app := fiber.New(fiber.Config{
		AppName:      "invoica-backend",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := bunDB.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth.RegisterAuthRoutes(app, controller)

	protected := auth.NewProtectedMiddleware(auther, repo, cfg)
	app.Get("/me", protected, controller.ProfileShow)

	srvLogger := lgr.GetLogger("http")
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		srvLogger.Info("listening", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	srvLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return app.ShutdownWithContext(shutdownCtx)
}
