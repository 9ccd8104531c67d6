package router

import (
	"net/http"

	"github.com/dtroode/authkeeper-server/internal/api/http/handler"
	"github.com/dtroode/authkeeper-server/internal/api/http/middleware"
	"github.com/dtroode/authkeeper-server/internal/logger"
	"github.com/dtroode/authkeeper-server/internal/model"
)

// Router assembles handlers and middleware into the HTTP surface.
type Router struct {
	authService  handler.AuthService
	refresh      handler.RefreshService
	reset        handler.PasswordResetService
	validator    middleware.TokenValidator
	ctxManager   model.ContextManager
	logger       *logger.Logger
}

func New(
	authService handler.AuthService,
	refresh handler.RefreshService,
	reset handler.PasswordResetService,
	validator middleware.TokenValidator,
	ctxManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService: authService,
		refresh:     refresh,
		reset:       reset,
		validator:   validator,
		ctxManager:  ctxManager,
		logger:      logger,
	}
}

// Register wires routes and returns the root handler.
func (r *Router) Register() http.Handler {
	auth := handler.NewAuth(r.authService, r.refresh, r.reset, r.ctxManager, r.logger)
	authenticate := middleware.NewAuthenticate(r.validator, r.ctxManager, r.logger)
	logging := middleware.NewLogging(r.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("POST /auth/refresh", auth.Refresh)
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("POST /auth/password/reset-request", auth.RequestPasswordReset)
	mux.HandleFunc("POST /auth/password/reset-confirm", auth.ConfirmPasswordReset)
	mux.Handle("GET /auth/sessions", authenticate.Wrap(http.HandlerFunc(auth.Sessions)))

	return logging.Wrap(mux)
}
