// ABOUTME: HTTP surface: sync chat, SSE streaming chat, and advanced search
// ABOUTME: Handlers validate, route to the engines, and persist chat turns
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/flowbrave/copilot/internal/chat"
	"github.com/flowbrave/copilot/internal/models"
	"github.com/flowbrave/copilot/internal/search"
	"github.com/flowbrave/copilot/internal/store"
)

// ErrValidation marks a request rejected before reaching the engines.
var ErrValidation = errors.New("validation failed")

// ChatEngine generates grounded answers.
type ChatEngine interface {
	Answer(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
	AnswerStream(ctx context.Context, req models.ChatRequest) (*chat.StreamingAnswer, error)
}

// GuidedEngine routes guided-mode requests.
type GuidedEngine interface {
	Route(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// Searcher runs advanced search.
type Searcher interface {
	AdvancedSearch(ctx context.Context, query, tenantID, userID, role string, opts search.AdvancedOptions) ([]models.SearchResult, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	chat    ChatEngine
	guided  GuidedEngine
	search  Searcher
	chatLog store.ChatLog
	logger  *log.Logger
}

// New creates the server.
func New(chatEngine ChatEngine, guidedEngine GuidedEngine, searcher Searcher, chatLog store.ChatLog, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		chat:    chatEngine,
		guided:  guidedEngine,
		search:  searcher,
		chatLog: chatLog,
		logger:  logger,
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /api/search/advanced", s.handleAdvancedSearch)
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateChatRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		resp models.ChatResponse
		err  error
	)
	if req.UseGuidedMode {
		resp, err = s.guided.Route(r.Context(), req)
	} else {
		resp, err = s.chat.Answer(r.Context(), req)
	}
	if err != nil {
		s.logger.Error("chat request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate response")
		return
	}

	s.persistTurns(r.Context(), req, resp.Response, resp.Sources, false)
	writeJSON(w, http.StatusOK, resp)
}

type streamEvent struct {
	Chunk   string          `json:"chunk,omitempty"`
	Sources []models.Source `json:"sources,omitempty"`
	Done    bool            `json:"done,omitempty"`
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateChatRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	answer, err := s.chat.AnswerStream(r.Context(), req)
	if err != nil {
		s.logger.Error("starting stream failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate response")
		return
	}
	defer answer.Stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	var full []byte
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		delta, done, err := answer.Stream.Recv()
		if err != nil {
			s.logger.Error("stream receive failed", "error", err)
			return
		}
		if done {
			break
		}
		if delta == "" {
			continue
		}
		full = append(full, delta...)
		writeEvent(w, streamEvent{Chunk: delta})
		flusher.Flush()
	}

	sources := answer.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	writeEvent(w, streamEvent{Sources: sources, Done: true})
	flusher.Flush()

	// Persist outside the request context: the client may disconnect as soon
	// as the terminal event arrives.
	s.persistTurns(context.WithoutCancel(ctx), req, string(full), sources, true)
}

type advancedSearchRequest struct {
	Query    string                 `json:"query"`
	TenantID string                 `json:"tenantId"`
	UserID   string                 `json:"userId"`
	Role     string                 `json:"role"`
	Options  search.AdvancedOptions `json:"options"`
}

func (s *Server) handleAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var req advancedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" || req.TenantID == "" {
		writeError(w, http.StatusBadRequest, "query and tenantId are required")
		return
	}

	results, err := s.search.AdvancedSearch(r.Context(), req.Query, req.TenantID, req.UserID, req.Role, req.Options)
	if err != nil {
		s.logger.Error("advanced search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// persistTurns writes the user and assistant turns to the chat log.
// Best effort: a logging failure never fails the request.
func (s *Server) persistTurns(ctx context.Context, req models.ChatRequest, response string, sources []models.Source, streaming bool) {
	if s.chatLog == nil {
		return
	}

	if err := s.chatLog.AppendTurn(ctx, models.ChatTurn{
		TenantID: req.TenantID,
		UserID:   req.UserID,
		Type:     "user",
		Message:  req.Query,
	}); err != nil {
		s.logger.Warn("persisting user turn failed", "error", err)
	}
	if err := s.chatLog.AppendTurn(ctx, models.ChatTurn{
		TenantID:  req.TenantID,
		UserID:    req.UserID,
		Type:      "ai",
		Message:   response,
		Sources:   sources,
		Streaming: streaming,
	}); err != nil {
		s.logger.Warn("persisting assistant turn failed", "error", err)
	}
}

func validateChatRequest(req models.ChatRequest) error {
	switch {
	case req.Query == "":
		return fmt.Errorf("%w: query is required", ErrValidation)
	case req.TenantID == "":
		return fmt.Errorf("%w: tenantId is required", ErrValidation)
	case req.UserID == "":
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	return nil
}

func writeEvent(w http.ResponseWriter, event streamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
