package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
)

const maxChatBodyBytes = 1 << 20

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Response      string         `json:"response"`
	SQL           string         `json:"sql"`
	Data          []bankdata.Row `json:"data"`
	ExecutionTime float64        `json:"execution_time"`
}

func handleChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "CHAT_UNAVAILABLE", "chat service is not configured", false, nil)
		return
	}

	var req chatRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON with a question field", false, nil)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "question is required", false, nil)
		return
	}

	answer, err := deps.Chat.Answer(r.Context(), req.Question)
	if err != nil {
		writeChatError(w, r, err)
		return
	}

	data := answer.Rows
	if data == nil {
		data = []bankdata.Row{}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:      answer.Response,
		SQL:           answer.SQL,
		Data:          data,
		ExecutionTime: answer.ExecutionTime.Seconds(),
	})
}

func writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *bankdata.ValidationError
	if errors.As(err, &validationErr) {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "SQL_REJECTED", validationErr.Error(), false, map[string]any{
			"reason": validationErr.Reason,
		})
		return
	}

	var providerErr *bankdata.ProviderError
	if errors.As(err, &providerErr) {
		writeError(r.Context(), w, http.StatusBadGateway, "GENERATION_FAILED", providerErr.Error(), true, map[string]any{
			"provider": providerErr.Provider,
		})
		return
	}

	var queryErr *bankdata.QueryError
	if errors.As(err, &queryErr) {
		if queryErr.Timeout {
			writeError(r.Context(), w, http.StatusGatewayTimeout, "QUERY_TIMEOUT", queryErr.Error(), true, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "QUERY_FAILED", queryErr.Error(), false, nil)
		return
	}

	writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", err.Error(), false, nil)
}
