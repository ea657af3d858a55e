package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stockroom-io/stockroom/internal/domain"
	"github.com/stockroom-io/stockroom/internal/metrics"
	"github.com/stockroom-io/stockroom/internal/ratelimit"
	"github.com/stockroom-io/stockroom/internal/service"
)

// AuthHandler handles credential verification requests.
type AuthHandler struct {
	userService *service.UserService
	limiter     ratelimit.Limiter
	logger      zerolog.Logger
}

// NewAuthHandler creates a new auth handler. limiter may be nil, in which
// case login attempts are not throttled.
func NewAuthHandler(userService *service.UserService, limiter ratelimit.Limiter, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		limiter:     limiter,
		logger:      logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers auth routes. Only login is throttled; the
// management endpoints sit behind the proxy's own access control.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(RateLimit(h.limiter, h.logger))
		}
		r.Post("/login", h.handleLogin)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *domain.User `json:"user"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		metrics.CountLoginRejection()
		h.logger.Info().
			Str("username", req.Username).
			Str("ip", clientIP(r)).
			Msg("login rejected")
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{User: user})
}
