package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/enhance"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	config      *config.ServerConfig
	keys        enhance.Keys
	enhancer    enhance.TextEnhancer
	dispatcher  *pipeline.Dispatcher
	rateLimiter *ratelimit.Limiter
	resumes     ResumeStore
	authHandler *AuthHandler
	jwtService  *JWTService
	closeStore  func()
}

// Dependencies are the collaborators New wires together.
// Without Users and Resumes the auth and resume routes are not mounted.
type Dependencies struct {
	Caller   llm.Caller
	Users    UserStore
	Resumes  ResumeStore
	JWT      *config.JWTConfig
	Password *config.PasswordConfig
}

// Open builds the production dependencies from cfg and returns a server.
func Open(ctx context.Context, cfg *config.ServerConfig) (*Server, error) {
	deps := Dependencies{Caller: llm.NewCaller(cfg.LLMConfig(), nil)}

	var database *db.DB
	if cfg.PersistenceEnabled() {
		var err error
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		deps.Users = database
		deps.Resumes = database

		if deps.Password, err = config.NewPasswordConfig(); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create password config: %w", err)
		}
		if deps.JWT, err = config.NewJWTConfig(); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create JWT config: %w", err)
		}
	} else {
		log.Printf("DATABASE_URL not set; auth and resume routes disabled")
	}

	s, err := New(cfg, deps)
	if err != nil {
		if database != nil {
			database.Close()
		}
		return nil, err
	}
	if database != nil {
		s.closeStore = database.Close
	}
	return s, nil
}

// New creates a new server instance
func New(cfg *config.ServerConfig, deps Dependencies) (*Server, error) {
	if deps.Caller == nil {
		return nil, fmt.Errorf("upstream caller is required")
	}

	observability.InitMetrics()

	templates, err := prompts.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	log.Printf("Loaded %d prompt templates", len(templates))

	s := &Server{
		config:      cfg,
		keys:        cfg.Keys(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.FromSettings(cfg.RateLimit)),
	}
	enhancer := enhance.New(deps.Caller, cfg.LLMConfig(), s.keys, enhance.WithBackoff(cfg.FailoverBackoff))
	s.enhancer = enhancer
	s.dispatcher = pipeline.NewDispatcher(enhancer)

	if s.keys.Primary == "" {
		log.Printf("Warning: GEMINI_API_KEY / GEMINI_PRIMARY_KEY not set; enhancement requests will fail")
	} else if !enhancer.HasFallback() {
		log.Printf("GEMINI_SECONDARY_KEY not set; failover disabled")
	}

	mux := http.NewServeMux()
	for _, path := range []string{"/api/health", "/health"} {
		mux.HandleFunc("GET "+path, s.handleHealth)
	}
	for _, path := range []string{"/api/enhance", "/enhance"} {
		mux.HandleFunc("POST "+path, s.handleEnhance)
	}
	mux.HandleFunc("POST /api/enhance/resume", s.handleEnhanceResume)
	mux.Handle("GET /metrics", observability.MetricsHandler())

	if deps.Users != nil && deps.Resumes != nil {
		if deps.JWT == nil || deps.Password == nil {
			return nil, fmt.Errorf("JWT and password configuration are required with a store")
		}
		s.jwtService = NewJWTService(deps.JWT)
		s.authHandler = NewAuthHandler(NewUserService(deps.Users, deps.Password), s.jwtService)
		s.resumes = deps.Resumes

		auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
		protected := func(pattern string, h http.HandlerFunc) {
			mux.Handle(pattern, auth(h))
		}

		mux.HandleFunc("POST /api/auth/register", s.authHandler.Register)
		mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)
		protected("GET /api/auth/me", s.authHandler.Me)

		protected("GET /api/resumes", s.handleListResumes)
		protected("POST /api/resumes", s.handleCreateResume)
		protected("GET /api/resumes/{id}", s.handleGetResume)
		protected("PATCH /api/resumes/{id}", s.handleUpdateResume)
		protected("DELETE /api/resumes/{id}", s.handleDeleteResume)
		protected("POST /api/resumes/{id}/duplicate", s.handleDuplicateResume)
		protected("POST /api/resumes/{id}/enhance", s.handleEnhanceStoredResume)
	}

	s.handler = middleware.RequestID(
		s.withCORS(
			s.withRateLimit(
				s.withLogging(
					observability.HTTPMetricsMiddleware(mux)))))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A full-resume run makes many sequential upstream calls
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens until SIGINT/SIGTERM and then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	log.Println("Server stopped")
	return nil
}

// Close releases the rate limiter and the store.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.closeStore != nil {
		s.closeStore()
		s.closeStore = nil
	}
}

// withCORS applies the configured CORS policy
func (s *Server) withCORS(next http.Handler) http.Handler {
	origins := s.config.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	})(next)
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := middleware.GetRequestID(r.Context())
		log.Printf("[%s] %s %s %s", r.Method, r.URL.Path, r.RemoteAddr, id)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v %s", r.Method, r.URL.Path, time.Since(start), id)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// extractClientID uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] %s %s exceeded: Limit=%d Reset=%s",
		r.Method, r.URL.Path, info.Limit, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
