// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenloan/validator-cli/internal/model"
	"github.com/greenloan/validator-cli/internal/store"
)

// maxUploadBytes caps the accepted PDF size at 50 MB.
const maxUploadBytes = 50 << 20

// Runner analyzes one PDF end to end.
type Runner interface {
	Run(ctx context.Context, pdfPath string) (*model.AnalysisReport, error)
}

// PageReader returns the stored per-page text of an ingested document.
type PageReader func(docID string) ([]string, error)

// Server is the HTTP API over the analysis pipeline.
type Server struct {
	router    *chi.Mux
	runner    Runner
	store     store.Store
	pageText  PageReader
	uploadDir string
}

// New creates a Server. The store may be nil, which disables the report
// listing endpoints.
func New(runner Runner, st store.Store, uploadDir string, pageText PageReader) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		runner:    runner,
		store:     st,
		pageText:  pageText,
		uploadDir: uploadDir,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/api/analyze", s.handleAnalyze)
	s.router.Get("/api/reports", s.handleListReports)
	s.router.Get("/api/reports/{docID}", s.handleGetReport)
	s.router.Delete("/api/reports/{docID}", s.handleDeleteReport)
	s.router.Get("/api/page/{docID}/{pageNo}", s.handlePageText)
}

// Handler returns the root HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until the context is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("server: listening", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
