package http

import (
	"context"
	"net/http"
	"time"

	"fieldlog/internal/auth"
	"fieldlog/internal/core"
	"fieldlog/internal/log"
)

// handleHealth reports liveness and process uptime in seconds.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"ok":     true,
		"uptime": s.now().Sub(s.started).Seconds(),
	}).Write(w)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	NewResponse().
		Header("Content-Type", "text/plain; charset=utf-8").
		BodyString("ok").
		Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["store"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]any{
		"dashboard_entries": s.dashboardCache.Size(),
	}
	rl := s.rateLimiter.GetMetrics()
	checks["rate_limiter"] = map[string]any{
		"active_clients": rl.ClientCount,
		"hits":           rl.TotalHits,
	}
	tm := s.traceMiddleware.GetMetrics()
	checks["requests"] = map[string]any{
		"total":           tm.TotalRequests,
		"avg_response_us": tm.AverageResponseTime,
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"companies": core.Companies(),
		"types":     core.Types(),
	}).Write(w)
}

// handleMe returns the authenticated principal.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		ErrorResponse(http.StatusUnauthorized, "unauthorized").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{
		"user":     p.User,
		"role":     p.Role,
		"canWrite": p.Role.CanWrite(),
	}).Write(w)
}

// handleLogin exchanges user and password for a bearer token. It is only
// available when a token secret is configured.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.tokens.Enabled() {
		NotFoundError("token login disabled").Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	user, password := parser.Get("user"), parser.Get("password")
	if user == "" || password == "" {
		BadRequestError(auth.ErrMissingCredentials.Error()).Write(w)
		return
	}
	role, err := s.auth.Check(user, password)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Login rejected",
			log.FieldUser, user,
			log.FieldClientIP, s.securityDetector.ExtractClientIP(r))
		ErrorResponse(http.StatusUnauthorized, err.Error()).Write(w)
		return
	}

	p := auth.Principal{User: user, Role: role}
	token, expires, err := auth.IssueToken(p, s.tokens, s.now())
	if err != nil {
		s.events.LogError(r.Context(), "Failed to issue token", err, log.ComponentAuth, log.OpCreate,
			log.NewFields().WithUser(user, string(role)))
		InternalServerError("internal error").Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Login succeeded", log.FieldUser, user, log.FieldRole, role)
	NewResponse().JSON(map[string]any{
		"token":     token,
		"expiresAt": expires.UTC().Format(time.RFC3339),
		"user":      user,
		"role":      role,
	}).Write(w)
}
