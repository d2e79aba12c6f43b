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
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-pilot/internal/config"
	"github.com/jonathan/job-pilot/internal/db"
	"github.com/jonathan/job-pilot/internal/fetch"
	"github.com/jonathan/job-pilot/internal/llm"
	"github.com/jonathan/job-pilot/internal/resumes"
	"github.com/jonathan/job-pilot/internal/server/middleware"
	"github.com/jonathan/job-pilot/internal/server/ratelimit"
	"github.com/jonathan/job-pilot/internal/skills"
	"github.com/jonathan/job-pilot/internal/store"
	"github.com/jonathan/job-pilot/internal/types"
)

// AIStructurer is the AI surface handlers use for free-text parsing. Nil when
// no API key is configured; the affected endpoints then return 503.
type AIStructurer interface {
	ParseEmployment(ctx context.Context, text string) (*types.EmploymentEntry, error)
	ParseProject(ctx context.Context, text string) (*types.ProjectEntry, error)
	ParseSkills(ctx context.Context, text string, knownCategories []string) ([]llm.SkillDraft, error)
	SuggestLearning(ctx context.Context, jobDescription string, skills []types.SkillEntry) ([]string, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	persister   store.Persister
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler

	generator  resumes.Generator
	structurer AIStructurer
	classifier skills.Classifier
	llmClient  llm.Client
	fetchOpts  *fetch.Options
	verbose    bool

	sessionsMu sync.Mutex
	sessions   map[uuid.UUID]*session
}

// Config holds server configuration
type Config struct {
	Port                 int
	DatabaseURL          string
	APIKey               string
	UseFallbackGenerator bool
	UseBrowser           bool
	Verbose              bool
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to prepare database schema: %w", err)
	}

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.AllowBrowser = cfg.UseBrowser
	fetchOpts.Verbose = cfg.Verbose

	s := &Server{
		db:        database,
		persister: database,
		fetchOpts: fetchOpts,
		verbose:   cfg.Verbose,
		sessions:  make(map[uuid.UUID]*session),
	}

	if err := s.initGeneration(ctx, cfg); err != nil {
		database.Close()
		return nil, err
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.userService = NewUserService(database, passwordConfig)

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // AI-backed endpoints can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// initGeneration selects the resume generator and AI collaborators.
func (s *Server) initGeneration(ctx context.Context, cfg Config) error {
	if cfg.UseFallbackGenerator || cfg.APIKey == "" {
		if cfg.APIKey == "" && !cfg.UseFallbackGenerator {
			log.Println("[SERVER] No API key configured, using the template generator")
		}
		s.generator = llm.NewTemplateGenerator()
		return nil
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	structurer := llm.NewStructurer(client)

	s.llmClient = client
	s.generator = llm.NewGeminiGenerator(client)
	s.structurer = structurer
	s.classifier = structurer
	return nil
}

// routes builds the request router. Auth and health endpoints are public;
// everything else requires a valid bearer token.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)

	protected := http.NewServeMux()
	protected.HandleFunc("PUT /auth/password", s.handleUpdatePassword)

	// Profile
	protected.HandleFunc("GET /profile", s.handleGetProfile)
	protected.HandleFunc("PUT /profile/personal-details", s.handleSetPersonalDetails)
	protected.HandleFunc("PUT /profile/background", s.handleSetBackground)
	protected.HandleFunc("POST /profile/employment", s.handleAddEmployment)
	protected.HandleFunc("PUT /profile/employment/{id}", s.handleUpdateEmployment)
	protected.HandleFunc("DELETE /profile/employment/{id}", s.handleDeleteEmployment)
	protected.HandleFunc("POST /profile/employment/{id}/skills/toggle", s.handleToggleJobSkill)
	protected.HandleFunc("POST /profile/projects", s.handleAddProject)
	protected.HandleFunc("PUT /profile/projects/{id}", s.handleUpdateProject)
	protected.HandleFunc("DELETE /profile/projects/{id}", s.handleDeleteProject)
	protected.HandleFunc("POST /profile/projects/{id}/skills/toggle", s.handleToggleProjectSkill)
	protected.HandleFunc("POST /profile/education", s.handleAddEducation)
	protected.HandleFunc("PUT /profile/education/{id}", s.handleUpdateEducation)
	protected.HandleFunc("DELETE /profile/education/{id}", s.handleDeleteEducation)
	protected.HandleFunc("POST /profile/parse/employment", s.handleParseEmployment)
	protected.HandleFunc("POST /profile/parse/project", s.handleParseProject)

	// Skills
	protected.HandleFunc("GET /skills", s.handleListSkills)
	protected.HandleFunc("POST /skills", s.handleAddSkill)
	protected.HandleFunc("PUT /skills/{id}", s.handleUpdateSkill)
	protected.HandleFunc("DELETE /skills/{id}", s.handleDeleteSkill)
	protected.HandleFunc("GET /skills/{id}/associations", s.handleSkillAssociations)
	protected.HandleFunc("POST /skills/parse", s.handleParseSkills)
	protected.HandleFunc("POST /skills/categorize", s.handleCategorizeSkills)

	// Applications
	protected.HandleFunc("GET /applications", s.handleListApplications)
	protected.HandleFunc("POST /applications", s.handleCreateApplication)
	protected.HandleFunc("POST /applications/from-url", s.handleCreateApplicationFromURL)
	protected.HandleFunc("GET /applications/{id}", s.handleGetApplication)
	protected.HandleFunc("PUT /applications/{id}", s.handleUpdateApplication)
	protected.HandleFunc("DELETE /applications/{id}", s.handleDeleteApplication)
	protected.HandleFunc("POST /applications/{id}/status", s.handleChangeStatus)
	protected.HandleFunc("POST /applications/{id}/suggest-learning", s.handleSuggestLearning)

	// Important dates and correspondence
	protected.HandleFunc("GET /applications/{id}/important-dates", s.handleListImportantDates)
	protected.HandleFunc("POST /applications/{id}/important-dates", s.handleAddImportantDate)
	protected.HandleFunc("PUT /applications/{id}/important-dates/{dateID}", s.handleUpdateImportantDate)
	protected.HandleFunc("DELETE /applications/{id}/important-dates/{dateID}", s.handleRemoveImportantDate)
	protected.HandleFunc("GET /applications/{id}/correspondence", s.handleListCorrespondence)
	protected.HandleFunc("POST /applications/{id}/correspondence", s.handleAddCorrespondence)
	protected.HandleFunc("DELETE /applications/{id}/correspondence/{entryID}", s.handleRemoveCorrespondence)

	// Resumes
	protected.HandleFunc("GET /applications/{id}/resumes", s.handleListResumes)
	protected.HandleFunc("POST /applications/{id}/resumes", s.handleAddResume)
	protected.HandleFunc("POST /applications/{id}/resumes/generate", s.handleGenerateResume)
	protected.HandleFunc("PUT /applications/{id}/resumes/{resumeID}", s.handleRenameResume)
	protected.HandleFunc("DELETE /applications/{id}/resumes/{resumeID}", s.handleRemoveResume)
	protected.HandleFunc("POST /applications/{id}/resumes/{resumeID}/star", s.handleStarResume)

	mux.Handle("/", middleware.Auth(s.jwtService.AsTokenValidator())(protected))
	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.llmClient != nil {
		_ = s.llmClient.Close()
	}
	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpdatePassword handles password update requests.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.authHandler.UpdatePassword(w, r, userID)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// domainError maps a domain error to its HTTP status and writes it.
func (s *Server) domainError(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), err.Error())
}

// extractClientID extracts the client identifier from the request.
// Uses the IP from RemoteAddr; X-Forwarded-For is deliberately ignored since
// it is client-controlled unless a trusted proxy strips it.
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

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
