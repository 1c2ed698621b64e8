package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lecturepdf/internal/app"
	"lecturepdf/internal/config"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	app    *app.App
	logger *slog.Logger
}

func NewServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}

	api := NewAPI(a.Syncer, a.Lister, a.Share, a.Stores.Target, a.Schedule, logger)
	engine, err := newEngine(cfg, api, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return &Server{engine: engine, cfg: cfg, app: a, logger: logger}, nil
}

// newEngine builds the router. Forwarding headers are honoured only from
// cfg.TrustedProxies so clients cannot pick their own rate limit key.
func newEngine(cfg config.Config, api *API, logger *slog.Logger) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(logger))
	engine.Use(CORS())

	var limiter *RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	registerRoutes(engine, api, limiter)
	return engine, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	defer s.app.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr, "storage", s.cfg.StorageType, "link_mode", s.cfg.LinkMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
