// Package server exposes the document engine over HTTP, a WebSocket live
// search channel and the Model Context Protocol.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/xhad/docspace/pkg/engine"
)

type Config struct {
	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int64
}

type Server struct {
	config Config
	engine *engine.Engine
	logger *log.Logger
	mux    *http.ServeMux
}

func New(eng *engine.Engine, config Config, logger *log.Logger) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = eng.Options().MaxUploadBytes
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		config: config,
		engine: eng,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /documents", s.handleCreateDocument)
	s.mux.HandleFunc("POST /documents/upload", s.handleUpload)
	s.mux.HandleFunc("POST /documents/import", s.handleImport)
	s.mux.HandleFunc("GET /documents", s.handleListDocuments)
	s.mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	s.mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)
	s.mux.HandleFunc("POST /documents/{id}/rechunk", s.handleRechunk)
	s.mux.HandleFunc("GET /documents/{id}/chunks", s.handleListChunks)

	s.mux.HandleFunc("GET /search", s.handleLexicalSearch)
	s.mux.HandleFunc("GET /search/semantic", s.handleSemanticSearch)

	s.mux.HandleFunc("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.cors(s.mux)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.config.AllowedOrigins, "*") || slices.Contains(s.config.AllowedOrigins, origin)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting server on %s", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
