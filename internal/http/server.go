package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"fieldlog/internal/auth"
	"fieldlog/internal/cache"
	"fieldlog/internal/core"
	"fieldlog/internal/log"
	"fieldlog/internal/metrics"
	"fieldlog/internal/middleware/ratelimit"
	"fieldlog/internal/middleware/security"
	"fieldlog/internal/middleware/trace"
	"fieldlog/internal/report"
)

// RecordService is the application surface the handlers drive.
type RecordService interface {
	List(ctx context.Context, company core.CompanyID) ([]core.ActivityRecord, error)
	Save(ctx context.Context, company core.CompanyID, rec core.ActivityRecord) (core.ActivityRecord, error)
	Remove(ctx context.Context, company core.CompanyID, id string) error
	Clear(ctx context.Context, company core.CompanyID) error
	Dashboard(ctx context.Context, company core.CompanyID, mode core.PeriodMode, today core.Date) (report.Dashboard, error)
	Summary(ctx context.Context, company core.CompanyID, today core.Date) (report.RecordsSummary, error)
	ExportCSV(ctx context.Context, company core.CompanyID) (string, error)
}

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Records and Auth are required.
type Options struct {
	Records      RecordService
	Auth         *auth.Authenticator
	Tokens       auth.TokenConfig
	Store        Pinger
	Logger       *log.Logger
	CORSOrigin   string
	RateLimit    int
	DashboardTTL time.Duration
	Now          func() time.Time
}

type Server struct {
	http.Server
	mux     *http.ServeMux
	records RecordService
	auth    *auth.Authenticator
	tokens  auth.TokenConfig
	store   Pinger
	logger  *log.Logger
	events  *log.StructuredLogger
	now     func() time.Time
	started time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	// Dashboard cache keyed by company|period|day. gens is bumped on every
	// mutation of a company so loads that raced a write are not stored.
	dashboardCache cache.Cache[report.Dashboard]
	cacheManager   *cache.Manager
	dashboardLoads singleflight.Group
	gensMu         sync.Mutex
	gens           map[core.CompanyID]uint64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DashboardTTL <= 0 {
		opts.DashboardTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()
	dashboards := cache.NewLRUCache[report.Dashboard](200, opts.DashboardTTL)
	manager := cache.NewManager()
	manager.Register(dashboards)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		mux:              mux,
		records:          opts.Records,
		auth:             opts.Auth,
		tokens:           opts.Tokens,
		store:            opts.Store,
		logger:           opts.Logger.WithComponent(log.ComponentHTTP),
		events:           log.NewStructuredLogger(opts.Logger),
		now:              opts.Now,
		started:          opts.Now(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		securityDetector: security.NewDetector(),
		dashboardCache:   dashboards,
		cacheManager:     manager,
		gens:             make(map[core.CompanyID]uint64),
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	manager.StartCleanup(10 * time.Minute)

	s.route("GET /health", s.handleHealth)
	s.route("GET /healthz", s.handleHealthz)
	s.route("GET /readyz", s.handleReady)
	s.route("GET /companies", s.handleCompanies)
	s.route("GET /me", s.handleMe)
	s.route("POST /login", s.handleLogin)

	s.route("GET /records/{company}", s.handleListRecords)
	s.route("GET /records/{company}/summary", s.handleSummary)
	s.route("POST /records/{company}", s.managerOnly(s.handleSaveRecord))
	s.route("DELETE /records/{company}", s.managerOnly(s.handleClearRecords))
	s.route("DELETE /records/{company}/{id}", s.managerOnly(s.handleRemoveRecord))

	s.route("GET /dashboard/{company}", s.handleDashboard)
	s.route("GET /export/{file}", s.managerOnly(s.handleExportCSV))

	mux.Handle("GET /metrics", promhttp.Handler())

	s.Handler = s.buildMiddlewareChain(mux, opts.CORSOrigin)
	return s
}

// route registers h under pattern and records its latency keyed by the
// pattern's path, so label cardinality stays bounded.
func (s *Server) route(pattern string, h http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	s.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rw, r)
		metrics.ObserveHTTP(method, path, strconv.Itoa(rw.status), time.Since(start))
	}))
}

func (s *Server) managerOnly(h http.HandlerFunc) http.HandlerFunc {
	return auth.RequireManager(h).ServeHTTP
}

// buildMiddlewareChain wraps the mux. The first middleware listed runs first.
func (s *Server) buildMiddlewareChain(h http.Handler, corsOrigin string) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig().WithCrossOriginClients())
	authn := auth.NewMiddleware(s.auth, s.tokens, skipAuth)

	chain := []func(http.Handler) http.Handler{
		s.traceMiddleware.Middleware,
		log.Middleware(s.logger),
		log.RequestIDMiddleware(trace.FromRequest),
		headers.Middleware,
		security.NoStore,
		s.securityDetector.Middleware(func(*http.Request) {
			metrics.SecurityEvent("suspicious")
		}),
		corsMiddleware(corsOrigin),
		s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.MutatingMethods, s.onRateLimited),
		authn.Wrap,
	}
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.SecurityEvent("rate_limited")
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError("rate limit exceeded").Write(w)
}

// skipAuth lets probes, metrics, login and CORS preflight through unauthenticated.
func skipAuth(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	switch r.URL.Path {
	case "/health", "/healthz", "/readyz", "/metrics":
		return true
	case "/login":
		return r.Method == http.MethodPost
	}
	return false
}

// InvalidateCompany drops cached dashboards of company. It is registered as
// a mutation listener on the record service.
func (s *Server) InvalidateCompany(company core.CompanyID) {
	s.gensMu.Lock()
	s.gens[company]++
	s.gensMu.Unlock()

	if n := s.dashboardCache.DeletePrefix(string(company) + "|"); n > 0 {
		s.logger.Debug("Dashboard cache invalidated", log.FieldCompany, company, "entries", n)
	}
}

func (s *Server) generation(company core.CompanyID) uint64 {
	s.gensMu.Lock()
	defer s.gensMu.Unlock()
	return s.gens[company]
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
