package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// maxRequestBody bounds the chat request body.
const maxRequestBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

// handleChat serves the turn endpoint. GET answers with static schema
// metadata and never touches the core; POST runs one turn behind the
// payment gate.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, chatSchemaMetadata)
	case http.MethodPost:
		s.withPaymentGate(s.handleTurn)(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	}
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}

	violations, err := s.validateChatRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if len(violations) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid request",
			Details: violations,
		})
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	result, err := s.runner.RunTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.logger.Error().Err(err).Msg("Turn failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "agent run failed"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
