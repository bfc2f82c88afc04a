package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/viant/oversight/engine"
	"github.com/viant/oversight/model/approval"
)

// Server adapts an engine to HTTP.
type Server struct {
	engine *engine.Service
	hub    *hub
}

// NewServer creates an HTTP server around engine.
func NewServer(service *engine.Service) *Server {
	return &Server{
		engine: service,
		hub:    newHub(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/approvals", s.handleSubmit)
	mux.HandleFunc("GET /v1/approvals/{id}", s.handleRequest)
	mux.HandleFunc("POST /v1/approvals/{id}/decision", s.handleDecide)
	mux.HandleFunc("GET /v1/approvals/pending", s.handlePending)
	mux.HandleFunc("GET /v1/audit", s.handleAudit)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	return mux
}

// Serve runs the HTTP server on addr until ctx is cancelled. It also pumps
// engine lifecycle events to connected websocket clients.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	go s.pumpEvents(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		s.hub.close()
	}()
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// pumpEvents forwards lifecycle events from the engine queue to the hub.
func (s *Server) pumpEvents(ctx context.Context) {
	queue := s.engine.Queue()
	for {
		message, err := queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("failed to consume lifecycle event: %v", err)
			continue
		}
		s.hub.broadcast(message.T())
		_ = message.Ack()
	}
}

// handleSubmit runs one approval lifecycle to its terminal outcome; every
// terminal status (Rejected and Timeout included) is a 200.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	request := &approval.Request{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return
	}
	response, err := s.engine.Submit(r.Context(), request)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleRequest returns one pending request; resolved requests are gone from
// the pending set and answer 404 (their outcome lives in the audit trail).
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	request, err := s.engine.Request(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	correlationID := r.PathValue("id")
	callback := &approval.Callback{}
	if err := json.NewDecoder(r.Body).Decode(callback); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return
	}
	decision, err := s.engine.Decide(r.Context(), correlationID, callback)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.engine.Pending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if pending == nil {
		pending = []*approval.Request{}
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	records, err := s.engine.Audit().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if records == nil {
		records = []*approval.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeEngineError(w http.ResponseWriter, err error) {
	var validation *approval.ValidationError
	switch {
	case errors.As(err, &validation):
		// Field and Reason travel separately so the client can rebuild the
		// typed error.
		writeError(w, http.StatusBadRequest, validation.Reason, validation.Field)
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, engine.ErrAlreadyResolved), errors.Is(err, engine.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, err.Error(), "")
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), "")
	}
}

func writeError(w http.ResponseWriter, code int, message, field string) {
	writeJSON(w, code, &errorResponse{Error: message, Field: field})
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
