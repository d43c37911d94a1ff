package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"gitlab.com/codearena.net/internal/adapter/metrics"
	"gitlab.com/codearena.net/internal/config"
	"gitlab.com/codearena.net/internal/core/ports/primary"
	auth2 "gitlab.com/codearena.net/internal/core/services/auth"
	"gitlab.com/codearena.net/internal/core/services/submission"
	"gitlab.com/codearena.net/internal/handlers"
	"gitlab.com/codearena.net/internal/handlers/auth"
	"gitlab.com/codearena.net/internal/handlers/submissions"
)

type ServiceProvider struct {
	submissionService submission.ISubmissionService
	localAuth         auth2.IAuthService
	jwtService        primary.JWTService
	healthChecks      map[string]handlers.Pinger
	gatherer          prometheus.Gatherer
}

func NewServiceProvider(
	submissionService submission.ISubmissionService,
	localAuth auth2.IAuthService,
	jwtService primary.JWTService,
	healthChecks map[string]handlers.Pinger,
	gatherer prometheus.Gatherer,
) *ServiceProvider {
	return &ServiceProvider{
		submissionService: submissionService,
		localAuth:         localAuth,
		jwtService:        jwtService,
		healthChecks:      healthChecks,
		gatherer:          gatherer,
	}
}

type Server struct {
	router          *mux.Router
	srv             *http.Server
	Config          *config.HttpConfig
	ServiceName     string
	ServiceProvider ServiceProvider
	logger          primary.Logger
}

func NewServer(cfg *config.HttpConfig, serviceName string, serviceProvider ServiceProvider, logger primary.Logger) *Server {
	return &Server{
		Config:          cfg,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	if s.ServiceProvider.submissionService == nil || s.ServiceProvider.jwtService == nil {
		return errors.New("http server: submission and jwt services are required")
	}
	if s.Config == nil {
		return errors.New("http server: config is required")
	}

	r := mux.NewRouter()
	handlers.NewHealthHandler(s.ServiceProvider.healthChecks, s.logger).RegisterRoutes(r)
	if s.ServiceProvider.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.ServiceProvider.gatherer)).Methods(http.MethodGet)
	}

	api := r.NewRoute().Subrouter()
	api.Use(handlers.NewMiddlewareProvider(s.ServiceProvider.jwtService, s.logger).JWTMiddleware)
	submissions.NewSubmissionHandler(s.ServiceProvider.submissionService, s.logger, s.Config.JudgeDeadline()).RegisterRoutes(api)
	if s.ServiceProvider.localAuth != nil {
		auth.NewHandler(s.logger, s.ServiceProvider.localAuth).RegisterRoutes(api)
	}

	s.router = r
	return nil
}

// Handler exposes the routed handler built by Init
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) newHTTPServer(ctx context.Context) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.Config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
}

// Start serves in the background; listen failures are sent on the returned channel
func (s *Server) Start(ctx context.Context) <-chan error {
	s.srv = s.newHTTPServer(ctx)

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info("Server listening",
			"service", s.ServiceName,
			"addr", s.srv.Addr,
			"writeTimeout", s.Config.WriteTimeout,
			"judgeDeadline", s.Config.JudgeDeadline())
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			errCh <- err
		}
	}()
	return errCh
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
