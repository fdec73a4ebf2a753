// Package server wires the HTTP API: gin engine, middleware, routes and
// the optional single-page frontend.
package server

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "bookbnb-backend/docs"
	"bookbnb-backend/internal/books"
	"bookbnb-backend/internal/loans"
	"bookbnb-backend/internal/platform/auth"
	"bookbnb-backend/internal/platform/config"
	"bookbnb-backend/internal/users"
)

type Services struct {
	Auth  *auth.Service
	Books *books.Service
	Loans *loans.Service
	Users *users.Service
}

// NewServices builds every domain service on one connection pool.
func NewServices(cfg *config.Config, conn *sql.DB) (*Services, error) {
	cancel, err := loans.ParseCancelPolicy(cfg.Loans.CancelPolicy)
	if err != nil {
		return nil, err
	}
	bookSvc := books.NewService(conn)
	return &Services{
		Auth:  auth.NewService(conn, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL),
		Books: bookSvc,
		Loans: loans.NewService(conn, loans.Policy{Cancel: cancel, Strict: cfg.Loans.StrictTransitions}),
		Users: users.NewService(conn, bookSvc),
	}, nil
}

// NewRouter builds the gin engine. static may be nil to disable the SPA.
func NewRouter(cfg *config.Config, svc *Services, log *slog.Logger, static fs.FS) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(RequestLogger(log), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowedOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	secret := svc.Auth.Secret()
	requireAuth := auth.RequireAuth(secret)

	// 公開APIでもトークンがあればリクエストログに user_id を残す
	api := r.Group("/api", auth.OptionalAuth(secret))
	auth.RegisterRoutes(api, svc.Auth)
	books.RegisterRoutes(api, svc.Books, requireAuth)
	loans.RegisterRoutes(api, svc.Loans, requireAuth)
	users.RegisterRoutes(api, svc.Users, requireAuth)

	r.NoRoute(spaFallback(static))
	return r
}

// StaticFS returns the configured frontend directory, or nil when unset.
func StaticFS(dir string) (fs.FS, error) {
	if dir == "" {
		return nil, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New(dir + " is not a directory")
	}
	return os.DirFS(dir), nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLS() {
			log.Info("listening", "addr", "https://"+srv.Addr)
			err = srv.ListenAndServeTLS(cfg.Certificate.Cert, cfg.Certificate.Key)
		} else {
			log.Info("listening", "addr", "http://"+srv.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
