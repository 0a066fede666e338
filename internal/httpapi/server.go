// Package httpapi exposes lead sessions over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shpitdev/leadfinder/internal/app"
)

type Options struct {
	// CORSOrigins lists allowed browser origins. "*" allows any origin; an
	// empty list disables CORS handling.
	CORSOrigins []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc *app.Service, log *zap.Logger, opts Options) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log.Named("http")))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	}

	h := &handler{svc: svc, log: log.Named("http")}

	r.GET("/api/health", h.health)

	v1 := r.Group("/api/v1/sessions")
	v1.POST("", h.createSession)
	v1.GET("/:id", h.getSession)
	v1.POST("/:id/search", h.search)
	v1.POST("/:id/selection/toggle", h.toggle)
	v1.POST("/:id/selection/all", h.selectAll)
	v1.POST("/:id/enrich", h.enrich)
	v1.DELETE("/:id/leads", h.clear)
	v1.GET("/:id/export.csv", h.export)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Serve runs the HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
