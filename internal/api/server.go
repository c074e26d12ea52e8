// Package api serves the diary over HTTP for `daybook serve`.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chris-regnier/daybook/internal/draft"
	"github.com/chris-regnier/daybook/internal/entry"
)

// Journal is the diary the API reads and writes. *journal.Store satisfies it.
type Journal interface {
	draft.Sink
	Entries() []entry.Entry
	Get(id string) (entry.Entry, bool)
}

// Handler holds the API's dependencies.
type Handler struct {
	journal Journal
	log     *zap.SugaredLogger
	now     func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides time.Now for default dates and streaks.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler returns a handler over j.
func NewHandler(j Journal, log *zap.SugaredLogger, opts ...Option) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &Handler{journal: j, log: log, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Recovery(h.log), RequestLogging(h.log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		entries := v1.Group("/entries")
		entries.GET("", h.ListEntries)
		entries.POST("", h.CreateEntry)
		entries.GET("/:id", h.GetEntry)
		entries.PUT("/:id", h.UpdateEntry)
		entries.DELETE("/:id", h.DeleteEntry)

		v1.GET("/calendar", h.Calendar)
	}
	return router
}

// Server runs the router until its context is cancelled.
type Server struct {
	srv *http.Server
	log *zap.SugaredLogger
}

// NewServer returns a server for h listening on addr.
func NewServer(addr string, h *Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: h.log,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http server listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
