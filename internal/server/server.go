package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/hotel-booking-calendar/internal/booking"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Options configure the HTTP host
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	// Display gates which parts of an evaluation are returned
	Display   booking.Options
	WeekStart time.Weekday
	Locale    language.Tag
}

// Server serves the booking calendar API
type Server struct {
	service    *booking.Service
	opts       Options
	httpServer *http.Server
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

// New creates a new server instance
func New(service *booking.Service, opts Options, logger *zap.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}

	s := &Server{
		service: service,
		opts:    opts,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler returns the router with all API routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/selection/evaluate", s.handleEvaluate)
		r.Get("/calendar/{year}/{month}", s.handleCalendar)
		r.Get("/dashboard/{year}/{month}", s.handleDashboard)
		r.Post("/recurrence/expand", s.handleExpand)

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", s.handleListBookings)
			r.Post("/", s.handleCreateBooking)
			r.Delete("/{id}", s.handleCancelBooking)
		})
	})

	return r
}

// requestLogger logs every request with its ID, status and latency
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("Request served",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// Run serves until Stop is called or SIGINT/SIGTERM arrives, then shuts down gracefully
func (s *Server) Run() error {
	s.logger.Info("Server started",
		zap.String("addr", s.opts.Addr),
		zap.Duration("request_timeout", s.opts.RequestTimeout))

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-s.ctx.Done():
		s.logger.Info("Server stop requested")

	case sig := <-sigChan:
		s.logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))

	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.cancel()
}
