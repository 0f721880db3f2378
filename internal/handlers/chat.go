package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"therapypal-gateway/internal/logging"
	"therapypal-gateway/internal/models"
	"therapypal-gateway/internal/services"
)

type chatReplier interface {
	Reply(ctx context.Context, message string) (string, error)
}

type requestRecorder interface {
	RecordRequest(outcome string)
}

type ChatHandler struct {
	chat     chatReplier
	model    string
	debug    bool
	logger   *slog.Logger
	recorder requestRecorder
	now      func() time.Time
}

func NewChatHandler(chat chatReplier, model string, debug bool, logger *slog.Logger, recorder requestRecorder) *ChatHandler {
	return &ChatHandler{
		chat:     chat,
		model:    model,
		debug:    debug,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), h.logger)
	logger.Info("received chat request", "remote_addr", r.RemoteAddr)

	req, err := ValidateChatRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var ve *ValidationError
		errors.As(err, &ve)
		logger.Warn("chat request rejected", "reason", string(ve.Kind), "error", ve.Message)
		h.record("validation_error")
		writeJSON(w, http.StatusBadRequest, timestampedErrorResp(ve.Message, "", h.now(), r))
		return
	}

	reply, err := h.chat.Reply(r.Context(), req.Message)
	if err != nil {
		h.handleChatError(w, r, err)
		return
	}

	h.record(services.OutcomeSuccess.String())
	writeJSON(w, http.StatusOK, models.ChatResponse{
		Response:  reply,
		Timestamp: formatTimestamp(h.now()),
		Model:     h.model,
	})
}

func (h *ChatHandler) handleChatError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context(), h.logger)
	now := h.now()

	var chatErr *services.ChatError
	if !errors.As(err, &chatErr) {
		logger.Error("error processing chat request", "error", err.Error())
		h.record("internal_error")
		writeJSON(w, http.StatusInternalServerError, timestampedErrorResp("Failed to generate response", err.Error(), now, r))
		return
	}

	h.record(chatErr.Outcome.String())

	switch chatErr.Outcome {
	case services.OutcomeSafetyBlock:
		writeJSON(w, http.StatusBadRequest, timestampedErrorResp("Response was blocked due to safety filters", chatErr.Detail, now, r))
	case services.OutcomeEmptyGeneration:
		writeJSON(w, http.StatusInternalServerError, timestampedErrorResp("Empty response received", chatErr.Detail, now, r))
	case services.OutcomeQuota:
		writeJSON(w, http.StatusTooManyRequests, timestampedErrorResp("API quota exceeded",
			h.verbose("The API quota has been exceeded. Please try again later.", chatErr.Detail), now, r))
	case services.OutcomeAuth:
		writeJSON(w, http.StatusUnauthorized, timestampedErrorResp("Authentication failed",
			h.verbose("Invalid API key or authentication error", chatErr.Detail), now, r))
	default:
		logger.Error("error processing chat request", "attempts", chatErr.Attempts, "error", chatErr.Error())
		writeJSON(w, http.StatusInternalServerError, timestampedErrorResp("Failed to generate response", chatErr.Detail, now, r))
	}
}

// verbose appends the raw provider text in development mode.
func (h *ChatHandler) verbose(details, raw string) string {
	if !h.debug || raw == "" {
		return details
	}
	return details + " (" + raw + ")"
}

func (h *ChatHandler) record(outcome string) {
	if h.recorder != nil {
		h.recorder.RecordRequest(outcome)
	}
}
