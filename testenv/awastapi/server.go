// Package awastapi provides an in-process fake of the AWAST backend for
// tests: the REST endpoints plus the scan event stream, with scripted
// status and frame sequences.
package awastapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/awast-sec/awast-go/pkg/models"
)

// Script describes what the fake backend serves for one scan.
type Script struct {
	// ScanID is the id assigned on start.
	ScanID string
	// Statuses is returned by the status endpoint in order; the last entry
	// repeats once exhausted.
	Statuses []string
	// Frames is written to the stream verbatim, one text message each, with
	// FrameDelay between them. The connection closes after the last frame.
	Frames []string
	// FrameDelay defaults to no delay.
	FrameDelay time.Duration
	// Alerts is served by the alerts endpoint.
	Alerts []models.Alert
	// RejectTarget makes the start endpoints answer 400.
	RejectTarget bool
}

// Server is the fake backend. Wrap its Handler in an httptest.Server.
type Server struct {
	Token  string // required bearer token; empty disables the check
	Script Script

	mu        sync.Mutex
	statusIdx int
	started   []string // targets passed to start endpoints
	aborted   []string // scan ids passed to abort
	router    *mux.Router
	upgrader  websocket.Upgrader
}

// New creates a fake backend serving the given script.
func New(token string, script Script) *Server {
	s := &Server{
		Token:  token,
		Script: script,
	}

	r := mux.NewRouter()
	r.HandleFunc("/zap/spider", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/zap/scan", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/zap/spider_status/{id}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/zap/scan_status/{id}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/zap/alerts", s.handleAlerts).Methods(http.MethodGet)
	r.HandleFunc("/zap/alerts/summary", s.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/zap/alerts/{id}", s.handleAlert).Methods(http.MethodGet)
	r.HandleFunc("/zap/abort/scan/{id}", s.handleAbort).Methods(http.MethodGet)
	r.HandleFunc("/scan/ws/scan/{id}", s.handleStream).Methods(http.MethodGet)
	s.router = r

	return s
}

// Handler returns the backend's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Started returns the targets passed to the start endpoints.
func (s *Server) Started() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.started))
	copy(out, s.started)

	return out
}

// Aborted returns the scan ids passed to the abort endpoint.
func (s *Server) Aborted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.aborted))
	copy(out, s.aborted)

	return out
}

func (s *Server) authorized(r *http.Request) bool {
	if s.Token == "" {
		return true
	}

	return r.Header.Get("Authorization") == "Bearer "+s.Token
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	var body struct {
		Target string `json:"target"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Target == "" {
		http.Error(w, `{"detail":"bad request"}`, http.StatusBadRequest)
		return
	}

	if s.Script.RejectTarget {
		http.Error(w, `{"detail":"target not allowed"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.started = append(s.started, body.Target)
	s.mu.Unlock()

	// The two start endpoints historically name the id field differently.
	field := "scan_id"
	if strings.HasSuffix(r.URL.Path, "/spider") {
		field = "scan"
	}

	writeJSON(w, map[string]string{field: s.Script.ScanID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	statuses := s.Script.Statuses
	idx := s.statusIdx
	if idx >= len(statuses) {
		idx = len(statuses) - 1
	} else {
		s.statusIdx++
	}
	s.mu.Unlock()

	status := "0"
	if idx >= 0 && idx < len(statuses) {
		status = statuses[idx]
	}

	writeJSON(w, models.ScanStatus{Status: status, Progress: status})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	writeJSON(w, map[string]interface{}{
		"count":  len(s.Script.Alerts),
		"alerts": s.Script.Alerts,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	var summary models.AlertsSummary
	for i := range s.Script.Alerts {
		summary.Add(s.Script.Alerts[i].Risk)
	}

	writeJSON(w, map[string]models.AlertsSummary{"alertsSummary": summary})
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]

	for i := range s.Script.Alerts {
		if s.Script.Alerts[i].ID == id {
			writeJSON(w, map[string]models.Alert{"alert": s.Script.Alerts[i]})
			return
		}
	}

	http.Error(w, `{"detail":"alert not found"}`, http.StatusNotFound)
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	s.aborted = append(s.aborted, mux.Vars(r)["id"])
	s.mu.Unlock()

	writeJSON(w, map[string]string{"result": "OK"})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("awastapi: upgrade failed: %v", err)
		return
	}

	defer func() {
		_ = conn.Close()
	}()

	for _, f := range s.Script.Frames {
		if s.Script.FrameDelay > 0 {
			time.Sleep(s.Script.FrameDelay)
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("awastapi: encode failed: %v", err)
	}
}
