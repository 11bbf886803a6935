// Package api provides the HTTP surface of the extractor: upload a raw .eml
// statement mail, get the extracted bill back as JSON. It runs store-less;
// persistence stays with the ingest command.
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/ryzhao/cmbill/classify"
	"github.com/ryzhao/cmbill/extractor/cmb"
	"github.com/ryzhao/cmbill/mail"
)

// Config holds the API server configuration.
type Config struct {
	Port string
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{Port: ":8080"}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	opts       cmb.Options
	classifier *classify.Classifier
	logger     *log.Logger
	mux        *http.ServeMux
}

// New creates an API server wired to the given extraction options and
// classifier.
func New(cfg Config, opts cmb.Options, classifier *classify.Classifier, logger *log.Logger) *Server {
	s := &Server{
		config:     cfg,
		opts:       opts,
		classifier: classifier,
		logger:     logger,
		mux:        http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/extract", s.handleExtract)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns the http.Handler, for use with custom http.Server setups
// and in tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.config.Port)
	return http.ListenAndServe(s.config.Port, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleExtract accepts a multipart upload of one raw mail and returns the
// extraction result. text_only=true returns the normalized body instead.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("extract request", "remote", r.RemoteAddr)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Could not parse multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Could not get uploaded file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Could not read file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		s.logger.Warn("unparseable message", "file", handler.Filename, "error", err)
		http.Error(w, "Could not parse message: "+err.Error(), http.StatusBadRequest)
		return
	}

	body, ok := mail.Body(msg)
	if !ok {
		http.Error(w, "Could not decode message body", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if textOnly(r) {
		json.NewEncoder(w).Encode(map[string]string{
			"filename": handler.Filename,
			"subject":  msg.Subject,
			"text":     body,
		})
		return
	}

	bill := cmb.Extract(body, s.opts, s.classifier)
	json.NewEncoder(w).Encode(map[string]any{
		"filename":   handler.Filename,
		"subject":    msg.Subject,
		"sender":     msg.Sender,
		"fields":     bill.Fields,
		"line_items": bill.LineItems,
	})
}

func textOnly(r *http.Request) bool {
	return r.FormValue("text_only") == "true" || r.URL.Query().Get("text_only") == "true"
}
