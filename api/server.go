// Package api exposes challan extraction over HTTP. This is a capability
// module that can be enabled via the CLI or used programmatically.
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/sahajtax/tdsret/extractor/challan"
	"github.com/sahajtax/tdsret/extractor/common"
)

// Config holds the API server configuration
type Config struct {
	Port            string
	DefaultTextOnly bool
	LogPrefix       string
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:      ":8080",
		LogPrefix: "API: ",
	}
}

// Server represents the HTTP API server
type Server struct {
	config Config
	mux    *http.ServeMux
}

// New creates a new API server with the given configuration
func New(cfg Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/extract", s.handleExtract)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns the http.Handler for the server.
// This allows the server to be used with custom http.Server configurations.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	log.Printf("%sStarting server on %s", s.config.LogPrefix, s.config.Port)
	return http.ListenAndServe(s.config.Port, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// extractResponse is the JSON body for a successful extraction.
type extractResponse struct {
	File    string              `json:"file"`
	Challan common.Challan      `json:"challan"`
	Missing []common.FieldError `json:"missing,omitempty"`
}

// handleExtract accepts one challan PDF as multipart form field "file"
// and returns the extracted record. With text_only=true it returns the
// raw text rows instead, which is useful when tuning patterns against a
// new receipt variant.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	log.Printf("%sReceived request from %s", s.config.LogPrefix, r.RemoteAddr)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse multipart form with 32MB max memory
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		log.Printf("%sError parsing multipart form: %v", s.config.LogPrefix, err)
		http.Error(w, "Could not parse multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		log.Printf("%sError getting file from form: %v", s.config.LogPrefix, err)
		http.Error(w, "Could not get uploaded file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		log.Printf("%sError reading file bytes: %v", s.config.LogPrefix, err)
		http.Error(w, "Could not read file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	rows, err := common.ExtractRowsFromPDFReader(bytes.NewReader(fileBytes))
	if err != nil || len(rows) < 1 {
		log.Printf("%sError extracting text: %v", s.config.LogPrefix, err)
		http.Error(w, "Could not extract text from file", http.StatusBadRequest)
		return
	}

	if s.textOnly(r) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"file": handler.Filename,
			"rows": rows,
		})
		return
	}

	record, missing := challan.Extract(handler.Filename, rows)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(extractResponse{
		File:    handler.Filename,
		Challan: record,
		Missing: missing,
	})
}

func (s *Server) textOnly(r *http.Request) bool {
	if s.config.DefaultTextOnly {
		return true
	}
	return r.FormValue("text_only") == "true" || r.URL.Query().Get("text_only") == "true"
}
