// Package http exposes the auth workflow as a JSON API under /api/v1/auth,
// built on gin.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address   string
	service   services.Auth
	logger    logging.Logger
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, svc services.Auth, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   a,
		service:   svc,
		logger:    l.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
	}
}

// Router builds the gin engine with every route and middleware attached.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	a := r.Group("/api/v1/auth")
	{
		a.POST("/register", s.register)
		a.POST("/request-email-token", s.requestEmailToken)
		a.POST("/verify-email", s.verifyEmail)
		a.POST("/login", s.login)
		a.POST("/logout", s.optionalAuth(), s.logout)
		a.POST("/forgot-password", s.forgotPassword)
		a.POST("/reset-password", s.resetPassword)
		a.PUT("/update-password", s.requireAuth(), s.updatePassword)
		a.POST("/social-auth", s.socialAuth)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
