package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"inhouse-lobby-bot/internal/worker"
)

// Sessions is the operator view of the worker manager.
type Sessions interface {
	Sessions() []worker.SessionInfo
	Abort(jobID int64) bool
	Status() worker.Status
}

// Server exposes session inspection, operator abort and metrics over HTTP.
type Server struct {
	sessions   Sessions
	logger     logrus.FieldLogger
	httpServer *http.Server
}

func New(addr string, sessions Sessions, logger logrus.FieldLogger) *Server {
	s := &Server{
		sessions: sessions,
		logger:   logger,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Router builds the request router.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	router.Path("/sessions").Methods(http.MethodGet).HandlerFunc(s.handleListSessions)
	router.Path("/sessions/{id:[0-9]+}").Methods(http.MethodDelete).HandlerFunc(s.handleAbortSession)
	router.Path("/status").Methods(http.MethodGet).HandlerFunc(s.handleStatus)
	router.Path("/healthz").Methods(http.MethodGet).HandlerFunc(s.handleHealth)
	router.Path("/metrics").Methods(http.MethodGet).Handler(promhttp.Handler())

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.WithFields(logrus.Fields{"method": r.Method, "url": r.URL.String()}).Debug("Unmatched request")
		w.WriteHeader(http.StatusNotFound)
	})
	return router
}

// Start serves until Stop is called. It returns http.ErrServerClosed after
// a clean stop.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting operator server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping operator server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessions.Sessions())
}

func (s *Server) handleAbortSession(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	if !s.sessions.Abort(jobID) {
		http.Error(w, "no session for job", http.StatusNotFound)
		return
	}

	s.logger.WithFields(logrus.Fields{"job_id": jobID, "remote": r.RemoteAddr}).Warn("Session abort requested")
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "aborting"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessions.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Warn("Could not write response")
	}
}
