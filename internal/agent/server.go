package agent

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wvlab/carla-orchestrator/internal/log"
	"github.com/wvlab/carla-orchestrator/internal/validator"
	"github.com/wvlab/carla-orchestrator/internal/wire"
)

var serverLogger = log.New(os.Stdout, "server")

// Server wires the Table's operations to the HTTP API described in §3.
type Server struct {
	cfg   Config
	table *Table
	mux   *mux.Router
}

// NewServer builds the agent's HTTP router. /health is never authenticated;
// every other endpoint requires the bearer token unless cfg.AuthDisabled().
func NewServer(cfg Config, table *Table) *Server {
	s := &Server{cfg: cfg, table: table, mux: mux.NewRouter()}

	s.mux.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	authed := s.mux.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	authed.HandleFunc("/stop", s.handleStop).Methods(http.MethodPost)
	authed.HandleFunc("/stop_all", s.handleStopAll).Methods(http.MethodPost)
	authed.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	return s
}

// ServeHTTP satisfies http.Handler so *Server can be passed directly to
// http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// authMiddleware enforces the shared bearer token in the Authorization
// header, unless the agent was started with the "change-me" placeholder
// token, in which case every request passes.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthDisabled() {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if strings.TrimPrefix(header, prefix) != s.cfg.Token {
			writeError(w, http.StatusForbidden, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.table.Health())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req wire.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	resp, err := s.table.Start(req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, validator.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrDuplicateJobID):
		writeError(w, http.StatusConflict, err.Error())
	default:
		serverLogger.Errorf("start failed; job_id: %s, error: %v", req.JobID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req wire.StopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	err := s.table.Stop(req.JobID, req.Mode)
	switch err {
	case nil:
		mode := req.Mode
		if mode == "" {
			mode = wire.ModeTerm
		}
		writeJSON(w, http.StatusOK, wire.StopResponse{Status: "sent", JobID: req.JobID, Mode: mode})
	case ErrJobNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	default:
		serverLogger.Errorf("stop failed; job_id: %s, error: %v", req.JobID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleStopAll(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")

	s.table.StopAll(mode)

	if mode == "" {
		mode = wire.ModeTreeKill
	}
	writeJSON(w, http.StatusOK, wire.StopAllResponse{Status: "sent", Mode: mode})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.table.Status())
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, wire.ErrorResponse{Error: msg})
}
