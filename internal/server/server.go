package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/models"
)

// NoReplyText is stored and returned when the upstream answers without any
// content.
const NoReplyText = "⚠️ No response."

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	Logger         *log.Logger
}

// Server is the reference chat backend: it records every exchange per
// session and relays messages to an upstream model API.
type Server struct {
	history  *History
	upstream backend.Backend
	logger   *log.Logger
	origins  []string
}

func New(history *History, upstream backend.Backend, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		history:  history,
		upstream: upstream,
		logger:   logger,
		origins:  opts.AllowedOrigins,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/chat", s.handleChat)
	r.Get("/chat/history", s.handleHistory)
	r.Delete("/chat/clear", s.handleClear)
	r.Get("/chat/sessions", s.handleSessions)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Printf("[server] listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Println("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type chatRequest struct {
	Message   *string `json:"message"`
	Model     string  `json:"model"`
	SessionID string  `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if req.Message == nil {
		writeError(w, http.StatusUnprocessableEntity, "message is required")
		return
	}
	if req.Model == "" {
		req.Model = string(models.DefaultModel)
	}
	if req.SessionID == "" {
		req.SessionID = backend.DefaultSessionID
	}

	model, err := models.ParseModel(req.Model)
	if err != nil {
		// reported in the body with a 200, which is what existing clients expect
		writeJSON(w, http.StatusOK, map[string]string{
			"error": fmt.Sprintf("Model '%s' not supported.", req.Model),
		})
		return
	}

	ctx := r.Context()
	if err := s.history.Save(ctx, req.SessionID, RoleUser, *req.Message); err != nil {
		s.logger.Printf("[server] %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := s.upstream.Send(ctx, backend.Request{
		Message:   *req.Message,
		Model:     model,
		SessionID: req.SessionID,
	})
	if err != nil {
		s.logger.Printf("[server] upstream %s (request %s): %v", model, middleware.GetReqID(ctx), err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	text, ok := reply.Text()
	if !ok {
		text = NoReplyText
	}
	if err := s.history.Save(ctx, req.SessionID, RoleAI, text); err != nil {
		s.logger.Printf("[server] %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": text})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = backend.DefaultSessionID
	}

	entries, err := s.history.List(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]Entry{"history": entries})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusUnprocessableEntity, "session_id is required")
		return
	}

	if _, err := s.history.Clear(r.Context(), sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "session_id": sessionID})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.history.Sessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]Session{"sessions": sessions})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
