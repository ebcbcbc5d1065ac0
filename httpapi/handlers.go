package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	iamauth "github.com/andyvr/iamauth"
	"github.com/andyvr/iamauth/middleware"
)

const tokenTypeBearer = "Bearer"

// Server exposes the authentication engine over HTTP.
type Server struct {
	engine *iamauth.Engine
	log    zerolog.Logger
}

func NewServer(engine *iamauth.Engine, log zerolog.Logger) *Server {
	return &Server{
		engine: engine,
		log:    log,
	}
}

// Handler returns the fully wired handler: rate limiting first, then the
// authentication pipeline, then the routed endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.Handle("GET /api/users/me", middleware.RequireAuth(http.HandlerFunc(s.handleCurrentUser)))

	var h http.Handler = mux
	h = middleware.Authenticate(s.engine)(h)
	h = middleware.RateLimit(s.engine.RateLimiter(), middleware.DefaultRouteTable())(h)
	return h
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Bad request", "Malformed request body.")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		s.writeError(w, r, http.StatusBadRequest, "Bad request", "Email and password are required.")
		return
	}

	pair, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeLoginError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, AuthenticationResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    tokenTypeBearer,
		Email:        req.Email,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.writeError(w, r, http.StatusBadRequest, "Bad request", "Malformed request body.")
		return
	}
	if req.AccessToken == "" {
		req.AccessToken = bearerFromHeader(r)
	}
	if req.AccessToken == "" && req.RefreshToken == "" {
		s.writeError(w, r, http.StatusBadRequest, "Bad request", "No token to revoke.")
		return
	}

	if err := s.engine.Logout(r.Context(), req.AccessToken, req.RefreshToken); err != nil {
		if errors.Is(err, iamauth.ErrStoreUnavailable) {
			s.writeError(w, r, http.StatusServiceUnavailable, "Service unavailable",
				"Logout could not be recorded. Please try again.")
			return
		}
		s.log.Error().Err(err).Msg("logout failed")
		s.writeError(w, r, http.StatusInternalServerError, "Internal server error", "Logout failed.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		s.writeError(w, r, http.StatusBadRequest, "Bad request", "Refresh token is required.")
		return
	}

	result, err := s.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, iamauth.ErrStoreUnavailable):
			s.writeError(w, r, http.StatusServiceUnavailable, "Service unavailable",
				"Token refresh unavailable. Please try again.")
		case errors.Is(err, iamauth.ErrAccountDisabled), errors.Is(err, iamauth.ErrAccountLocked):
			s.writeError(w, r, http.StatusForbidden, "Forbidden", "Account is not active.")
		default:
			s.writeError(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid refresh token.")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, AuthenticationResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: req.RefreshToken,
		TokenType:    tokenTypeBearer,
		Email:        result.Subject,
	})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		s.writeError(w, r, http.StatusUnauthorized, "Unauthorized", "Authentication required.")
		return
	}

	authorities := principal.Authorities
	if authorities == nil {
		authorities = []string{}
	}
	s.writeJSON(w, http.StatusOK, UserResponse{
		Email:       principal.Subject,
		Authorities: authorities,
	})
}

func (s *Server) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, iamauth.ErrAccountDisabled), errors.Is(err, iamauth.ErrAccountLocked):
		s.writeError(w, r, http.StatusForbidden, "Forbidden", "Account is not active.")
	case errors.Is(err, iamauth.ErrInvalidCredentials):
		s.writeError(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid email or password.")
	default:
		s.log.Error().Err(err).Msg("login failed")
		s.writeError(w, r, http.StatusInternalServerError, "Internal server error", "Login failed.")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     title,
		Message:   message,
		Path:      r.URL.Path,
	})
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return errEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func bearerFromHeader(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return auth[len(prefix):]
}
