package api

import (
	// Go Internal Packages
	"context"
	"errors"
	"net/http"
	"time"

	// External Packages
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the transfer and account routes behind bearer auth. metrics may be nil.
func NewRouter(h *TransferHandler, a *AccountHandler, resolver *Resolver, metrics http.Handler, isProdMode bool) *gin.Engine {
	if isProdMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	authed := r.Group("/", resolver.Middleware())
	authed.POST("/transfer", h.CreateTransfer)
	authed.GET("/transfer/:id", h.GetTransfer)
	authed.GET("/transfer/:id/audit", h.GetAudit)
	authed.GET("/transfers", h.ListTransfers)
	authed.GET("/transfers/all", RequireAuthority(AuthorityViewAll), h.ListAllTransfers)
	authed.GET("/balance/:kind", a.GetBalance)
	authed.POST("/topup", a.TopUp)
	return r
}

type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
