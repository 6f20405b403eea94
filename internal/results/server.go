package results

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/quakelab/bridgeval/internal/log"
	"github.com/quakelab/bridgeval/internal/orchestrator"
)

// Server exposes a finished evaluation run over HTTP: the results
// document, the text report, and a health endpoint. The summary is
// read-only once the server is created, so no locking is needed.
type Server struct {
	document map[string]interface{}
	report   string
	runID    string
}

// NewServer creates a viewer for one evaluation summary. The report text
// is rendered by the caller so this package does not depend on the
// report package.
func NewServer(summary *orchestrator.Summary, reportText string) *Server {
	return &Server{
		document: Document(summary),
		report:   reportText,
		runID:    summary.RunID,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	router.HandleFunc("/api/report", s.handleReport).Methods("GET")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	return router
}

// ListenAndServe blocks serving the results viewer.
func (s *Server) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Infof("results viewer listening on %s", addr)
	return server.ListenAndServe()
}

// handleSummary writes the results document as JSON, or MessagePack when
// format=msgpack is requested.
func (s *Server) handleSummary(w http.ResponseWriter, req *http.Request) {
	if req.URL.Query().Get("format") == "msgpack" {
		encoded, err := msgpack.Marshal(s.document)
		if err != nil {
			http.Error(w, "failed to encode summary", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.Write(encoded)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.document); err != nil {
		log.Errorf("failed to write summary response: %v", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.report))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"run_id": s.runID,
	})
}
