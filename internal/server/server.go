// Package server exposes the assistant over HTTP next to health and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rpa-assistant/internal/chatbot"
	apperrors "rpa-assistant/internal/common/errors"
	"rpa-assistant/internal/common/logger"
	"rpa-assistant/internal/common/validation"
)

const maxBodyBytes = 64 << 10

const askSchema = `{
  "type": "object",
  "required": ["question"],
  "additionalProperties": false,
  "properties": {
    "question": {"type": "string", "minLength": 1, "maxLength": 2000}
  }
}`

var askRequestSchema = validation.MustCompile(askSchema)

type Answerer interface {
	Answer(ctx context.Context, text string) chatbot.Answer
}

// Pinger reports whether the execution log store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Address        string
	RequestTimeout time.Duration
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

type Server struct {
	config Config
	bot    Answerer
	store  Pinger
	logger logger.Logger
	http   *http.Server
}

func New(cfg Config, bot Answerer, store Pinger, log logger.Logger) *Server {
	s := &Server{
		config: cfg,
		bot:    bot,
		store:  store,
		logger: log.With(map[string]interface{}{"component": "http"}),
	}
	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes without starting a listener.
func (s *Server) Handler() http.Handler {
	gatherer := s.config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// ListenAndServe blocks until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.config.Address})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": apperrors.NewInvalidInputError("request body must be a JSON object"),
		})
		return
	}
	if result := askRequestSchema.Validate(doc); !result.Valid {
		details := result.Error()
		if result.HasErrors("question") {
			details = "question must be a non-empty string of at most 2000 characters"
		}
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  apperrors.NewInvalidInputError(details),
			"errors": result.Errors,
		})
		return
	}

	var req askRequest
	_ = json.Unmarshal(body, &req)

	ctx := r.Context()
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		ctx = chatbot.WithRequestID(ctx, id)
	}

	// Store failures are answers too; the status stays 200.
	writeJSON(w, http.StatusOK, s.bot.Answer(ctx, req.Question))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", map[string]interface{}{"error": err.Error()})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
