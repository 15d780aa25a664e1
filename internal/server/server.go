// Package server is the thin HTTP transport over the simulation and
// recommendation engines. It owns request decoding, validation mapping,
// and response shaping; all decision logic lives in the engines.
package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/carbonshift/simulator/internal/insights"
	"github.com/carbonshift/simulator/internal/recommend"
	"github.com/carbonshift/simulator/internal/refdata"
	"github.com/carbonshift/simulator/internal/simulation"
)

const requestIDHeader = "X-Request-Id"

// Server wires the engines to HTTP handlers.
type Server struct {
	store     *refdata.Store
	simulator *simulation.Engine
	recommend *recommend.Engine
	insights  insights.Generator
	logger    zerolog.Logger
}

// New returns a Server over the given collaborators.
func New(store *refdata.Store, sim *simulation.Engine, rec *recommend.Engine, gen insights.Generator, logger zerolog.Logger) *Server {
	return &Server{
		store:     store,
		simulator: sim,
		recommend: rec,
		insights:  gen,
		logger:    logger,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestLogging)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/simulate", s.handleSimulate).Methods(http.MethodPost)
	api.HandleFunc("/metadata", s.handleMetadata).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return r
}

// requestLogging assigns each request a trace id and logs one summary line.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := r.Header.Get(requestIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, traceID)

		next.ServeHTTP(w, r)

		s.logger.Info().
			Str("trace_id", traceID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}
