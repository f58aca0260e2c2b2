package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"fanbridge/internal/application"
)

const (
	maxTextBody  = 4 << 10
	maxAudioBody = 10 << 20
)

// Interpreter is the pipeline surface the server depends on.
type Interpreter interface {
	Process(ctx context.Context, text string) (*application.Result, error)
}

// Server is the HTTP front door: text and voice commands in, serial status
// and manual retry for operators.
type Server struct {
	addr        string
	authToken   string
	pipeline    Interpreter
	stt         application.SpeechToText
	link        application.SerialControl
	logger      *slog.Logger
	mux         *http.ServeMux
	rateLimiter *RateLimiter

	mu      sync.Mutex
	server  *http.Server
	running bool
}

func NewServer(addr, authToken string, pipeline Interpreter, stt application.SpeechToText, link application.SerialControl, logger *slog.Logger) *Server {
	s := &Server{
		addr:        addr,
		authToken:   authToken,
		pipeline:    pipeline,
		stt:         stt,
		link:        link,
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 requests per minute per IP
	}

	s.mux.HandleFunc("POST /command", s.rateLimiter.Middleware(s.withAuth(s.handleCommand)))
	s.mux.HandleFunc("POST /voice", s.rateLimiter.Middleware(s.withAuth(s.handleVoice)))
	s.mux.HandleFunc("GET /serial/status", s.handleSerialStatus)
	s.mux.HandleFunc("POST /serial/retry", s.withAuth(s.handleSerialRetry))
	s.mux.HandleFunc("GET /health", s.handleHealth)

	return s
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP server starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}

	s.running = false
	return nil
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != s.authToken {
				s.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next(w, r)
	}
}

type advisoryDTO struct {
	Device     string `json:"device"`
	Action     string `json:"action"`
	Value      int    `json:"value,omitempty"`
	Confidence string `json:"confidence"`
}

type finalDTO struct {
	Device string `json:"device"`
	Action string `json:"action"`
	Value  int    `json:"value,omitempty"`
}

type commandResponse struct {
	Text     string      `json:"text"`
	Advisory advisoryDTO `json:"advisory"`
	Final    *finalDTO   `json:"final"`
	Sent     bool        `json:"sent"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxTextBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	defer r.Body.Close()

	text := strings.TrimSpace(string(data))
	if text == "" {
		writeError(w, http.StatusBadRequest, "empty text")
		return
	}

	s.respondWithPipeline(w, r, text)
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio field")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio")
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio")
		return
	}

	mime := header.Header.Get("Content-Type")
	if v := r.FormValue("mime"); v != "" {
		mime = v
	}

	text, err := s.stt.Transcribe(r.Context(), audio, mime)
	if err != nil {
		s.logger.Error("transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	s.logger.Info("transcribed voice command", "text", text, "bytes", len(audio))

	s.respondWithPipeline(w, r, text)
}

func (s *Server) respondWithPipeline(w http.ResponseWriter, r *http.Request, text string) {
	res, err := s.pipeline.Process(r.Context(), text)
	if err != nil {
		s.logger.Error("pipeline failed", "text", text, "error", err)
		writeError(w, http.StatusBadGateway, "command interpretation failed")
		return
	}

	resp := commandResponse{
		Text: text,
		Advisory: advisoryDTO{
			Device:     string(res.Advisory.Device),
			Action:     string(res.Advisory.Action),
			Value:      res.Advisory.Value,
			Confidence: string(res.Advisory.Confidence),
		},
		Sent: res.Sent,
	}
	if res.Final != nil {
		resp.Final = &finalDTO{
			Device: string(res.Final.Device),
			Action: string(res.Final.Action),
			Value:  res.Final.Value,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSerialStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.link.Status())
}

func (s *Server) handleSerialRetry(w http.ResponseWriter, _ *http.Request) {
	if err := s.link.Retry(); err != nil {
		s.logger.Warn("serial retry failed", "error", err)
		writeJSON(w, http.StatusBadGateway, s.link.Status())
		return
	}
	writeJSON(w, http.StatusOK, s.link.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	status := "ok"
	code := http.StatusOK
	if !running {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"serial":    s.link.Status(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
