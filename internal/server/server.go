// Package server exposes quiz sessions and reports over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/vidquiz/internal/logger"
	"github.com/abhisek/vidquiz/internal/metrics"
	"github.com/abhisek/vidquiz/internal/quiz"
	"github.com/abhisek/vidquiz/internal/realtime"
	"github.com/abhisek/vidquiz/internal/report"
	"github.com/abhisek/vidquiz/internal/store"
	"github.com/abhisek/vidquiz/internal/viewer"
)

// Deps are the collaborators a Server needs. Bus and Metrics are optional.
type Deps struct {
	Store   *store.Store
	Emitter quiz.Submitter
	Bus     realtime.Bus
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

// Options tunes the HTTP surface.
type Options struct {
	Addr          string
	Mode          string
	CORSOrigins   []string
	SessionIdle   time.Duration
	PassThreshold float64
}

type Server struct {
	engine   *gin.Engine
	hub      *Hub
	store    *store.Store
	resolver *viewer.Resolver
	reports  *report.Service
	emitter  quiz.Submitter
	bus      realtime.Bus
	metrics  *metrics.Metrics
	log      *logger.Logger
	opts     Options
}

// New builds the router. It does not start listening.
func New(deps Deps, opts Options) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.SessionIdle <= 0 {
		opts.SessionIdle = 30 * time.Minute
	}

	s := &Server{
		engine:   gin.New(),
		hub:      NewHub(opts.SessionIdle, deps.Metrics, deps.Logger),
		store:    deps.Store,
		resolver: viewer.NewResolver(deps.Store.EmployeeRepo(), deps.Store.VideoRepo()),
		reports:  report.New(deps.Store),
		emitter:  deps.Emitter,
		bus:      deps.Bus,
		metrics:  deps.Metrics,
		log:      deps.Logger.With("component", "http"),
		opts:     opts,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(s.metrics.Middleware())

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Content-Length", "Accept", "Origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	r.Use(cors.New(cfg))

	r.GET("/health", s.health)
	r.GET("/metrics", s.metrics.Handler())

	api := r.Group("/api")
	{
		api.POST("/login", s.login)

		sessions := api.Group("/sessions")
		sessions.POST("", s.createSession)
		sessions.GET("/:id", s.getSession)
		sessions.DELETE("/:id", s.deleteSession)
		sessions.POST("/:id/play", s.play)
		sessions.POST("/:id/ticks", s.tick)
		sessions.POST("/:id/answers", s.answer)
		sessions.POST("/:id/ended", s.ended)

		reports := api.Group("/reports")
		reports.GET("/employees", s.employeeStats)
		reports.GET("/videos/:id/goal", s.goal)

		api.GET("/events", s.events)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Hub returns the live session registry.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves on opts.Addr until ctx is done, then shuts down gracefully and
// abandons every live session.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.opts.Addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.hub.CloseAll()
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
