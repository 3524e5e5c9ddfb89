// Package api exposes the report pipeline over HTTP. The surface is small:
// a health probe and the generate-report operation.
//
// The error contract matters more than the routes: a request that reaches
// the pipeline always gets 200 with success=false on failure. 4xx is
// reserved for requests the pipeline never sees (malformed JSON, invalid
// fields, wrong method).
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driving"
	"github.com/joelmbaka/introspect/internal/logger"
)

// Default server timeouts.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second

	// maxRequestBody bounds the request body; prompts are capped at 500
	// characters so anything near this limit is not a legitimate request.
	maxRequestBody = 1 << 20
)

// Server is the HTTP shell around the report service.
type Server struct {
	report driving.ReportService
	http   *http.Server
}

// healthResponse is the GET / payload.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// NewServer creates an HTTP server bound to addr.
func NewServer(addr string, report driving.ReportService) *Server {
	s := &Server{report: report}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/generate-report", s.handleGenerateReport)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
	return s
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run starts the server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: "introspect",
		Version: "0.1.0",
	})
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req domain.ReportRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Structural validation happens at the edge; the pipeline validates
	// again but its failures come back as 200 payloads, not 4xx.
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := s.report.GenerateReport(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

// errorResponse is the 4xx payload, distinct from the pipeline's
// success=false envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("writing response: %v", err)
	}
}
