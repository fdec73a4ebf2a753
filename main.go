package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/config"
	"bookbnb-backend/internal/platform/db"
	"bookbnb-backend/internal/seed"
	"bookbnb-backend/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "bookbnb",
		Short:        "BookBnB API server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "path to config.yaml")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), cfgPath, serve)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the database schema",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), cfgPath, func(ctx context.Context, a *app) error {
					if err := db.Migrate(ctx, a.conn); err != nil {
						return err
					}
					a.log.Info("schema applied", "db", a.cfg.DB.DBName)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the demo user and sample books into an empty catalog",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), cfgPath, runSeed)
			},
		},
	)
	return root
}

type app struct {
	cfg  *config.Config
	log  *slog.Logger
	conn *sql.DB
	svc  *server.Services
}

func withApp(ctx context.Context, cfgPath string, fn func(context.Context, *app) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// 設定読み込み
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Mode)
	slog.SetDefault(log)
	log.Info("config loaded", "mode", cfg.Mode, "version", cfg.Version)

	apierr.UseJSONFieldNames()

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("connected to DB", "db", cfg.DB.DBName)

	svc, err := server.NewServices(cfg, conn)
	if err != nil {
		return err
	}
	return fn(ctx, &app{cfg: cfg, log: log, conn: conn, svc: svc})
}

func newLogger(mode string) *slog.Logger {
	if mode == "release" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func serve(ctx context.Context, a *app) error {
	if a.cfg.SeedOnStart {
		if err := runSeed(ctx, a); err != nil {
			// 起動自体は止めない
			a.log.Error("seed failed", "err", err)
		}
	}

	static, err := server.StaticFS(a.cfg.Server.StaticDir)
	if err != nil {
		return fmt.Errorf("static dir: %w", err)
	}
	r := server.NewRouter(a.cfg, a.svc, a.log, static)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, a.cfg, r, a.log)
}

func runSeed(ctx context.Context, a *app) error {
	_, err := seed.Run(ctx, a.log, a.svc.Auth, a.svc.Books)
	return err
}
