package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"wealthtrack/internal/parser"
	"wealthtrack/internal/portfolio"
	"wealthtrack/internal/utils"
)

// Server represents the API server instance
// It handles HTTP requests and owns the parser/analyzer pipeline
type Server struct {
	router   *mux.Router
	logger   utils.Logger
	config   *utils.Config
	db       *sql.DB
	parser   *parser.Parser
	analyzer *portfolio.Analyzer
	perf     *utils.PerformanceTracker
}

// NewServer creates and initializes a new API server instance
func NewServer(logger utils.Logger, config *utils.Config, db *sql.DB, statementParser *parser.Parser, analyzer *portfolio.Analyzer) *Server {
	server := &Server{
		router:   mux.NewRouter(),
		logger:   logger,
		config:   config,
		db:       db,
		parser:   statementParser,
		analyzer: analyzer,
		perf:     utils.NewPerformanceTracker(),
	}

	server.setupRouter()
	server.setupRoutes()
	return server
}

// setupRoutes configures APIs for the server.
func (s *Server) setupRoutes() {
	s.logger.Debug("Setting up routes...")

	apiRouter := s.router.PathPrefix("/api").Subrouter()

	portfolioRouter := apiRouter.PathPrefix("/portfolio").Subrouter()
	portfolioRouter.HandleFunc("/analyze", s.AnalyzeStatement).Methods("POST")
	portfolioRouter.HandleFunc("/history", s.GetSnapshotHistory).Methods("GET")
	portfolioRouter.HandleFunc("", s.GetLatestSnapshot).Methods("GET")

	s.logger.Debug("Registered route: POST /api/portfolio/analyze")
	s.logger.Debug("Registered route: GET /api/portfolio")
	s.logger.Debug("Registered route: GET /api/portfolio/history")

	s.logger.Info("Routes setup completed")

	// Add logging middleware
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			s.logger.Debug("Request started: %s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
			s.logger.Debug("Request completed: %s %s (%v)", r.Method, r.URL.Path, time.Since(start))
		})
	})
}

// setupRouter configures middleware for the server.
func (s *Server) setupRouter() {
	s.router.HandleFunc("/health", s.healthCheck).Methods("GET")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("Starting API server on port %s", s.config.Server.Port)

	srv := &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server starting on http://localhost:%s", s.config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
		s.logger.Info("Shutdown signal received")
	}

	s.logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown failed: %v", err)
		return err
	}

	s.logger.Info("Server stopped gracefully")
	return nil
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// respondWithError sends an error response with the specified status code and message
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response with the specified status code and payload
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			s.respondWithError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}

	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": "1.0.0",
	})
}
