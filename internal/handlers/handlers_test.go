package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"therapypal-gateway/internal/logging"
	"therapypal-gateway/internal/models"
	"therapypal-gateway/internal/services"
)

// ─── Stubs ───

type stubReplier struct {
	reply    string
	err      error
	messages []string
}

func (s *stubReplier) Reply(_ context.Context, message string) (string, error) {
	s.messages = append(s.messages, message)
	return s.reply, s.err
}

type outcomeRecorder struct {
	outcomes []string
}

func (r *outcomeRecorder) RecordRequest(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

type stubChecker struct {
	status models.HealthStatus
}

func (c stubChecker) Check(context.Context) models.HealthStatus { return c.status }

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newTestChatHandler(replier chatReplier, debug bool) (*ChatHandler, *outcomeRecorder) {
	rec := &outcomeRecorder{}
	h := NewChatHandler(replier, "gemini-1.5-pro", debug, logging.Discard(), rec)
	h.now = func() time.Time { return fixedNow }
	return h, rec
}

func postChat(h *ChatHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-test")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

// ─── Chat Handler Tests ───

func TestChat_Success(t *testing.T) {
	replier := &stubReplier{reply: "Hi there"}
	h, rec := newTestChatHandler(replier, false)

	rr := postChat(h, `{"message": "Hello"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body models.ChatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Hi there", body.Response)
	assert.Equal(t, "gemini-1.5-pro", body.Model)
	assert.Equal(t, "2024-05-06T07:08:09Z", body.Timestamp)
	assert.Equal(t, []string{"Hello"}, replier.messages)
	assert.Equal(t, []string{"success"}, rec.outcomes)
}

func TestChat_ValidationFailures(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"no body", "", "No JSON data provided"},
		{"invalid json", "{not json", "No JSON data provided"},
		{"empty object", "{}", "No JSON data provided"},
		{"json null", "null", "No JSON data provided"},
		{"empty json array", `[]`, "No JSON data provided"},
		{"json array", `["Hello"]`, "Missing 'message' field in request"},
		{"trailing data", `{"message": "Hello"} extra`, "No JSON data provided"},
		{"missing message", `{"text": "Hello"}`, "Missing 'message' field in request"},
		{"empty message", `{"message": ""}`, "Message cannot be empty"},
		{"whitespace message", `{"message": "  \n\t "}`, "Message cannot be empty"},
		{"null message", `{"message": null}`, "Message cannot be empty"},
		{"numeric message", `{"message": 42}`, "Message must be a string"},
		{"too long", `{"message": "` + strings.Repeat("a", MaxMessageLength+1) + `"}`, "Message too long (max 10000 characters)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			replier := &stubReplier{reply: "unused"}
			h, rec := newTestChatHandler(replier, false)

			rr := postChat(h, tc.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			body := decodeErrorBody(t, rr)
			assert.Equal(t, tc.wantError, body.Error)
			assert.Equal(t, "req-test", body.RequestID)
			assert.Empty(t, replier.messages, "provider must not be called")
			assert.Equal(t, []string{"validation_error"}, rec.outcomes)
		})
	}
}

func TestChat_ProviderOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantError   string
		wantDetails string
	}{
		{
			name:        "safety block",
			err:         &services.ChatError{Outcome: services.OutcomeSafetyBlock, Detail: "block_reason: Safety", Attempts: 1},
			wantStatus:  http.StatusBadRequest,
			wantError:   "Response was blocked due to safety filters",
			wantDetails: "block_reason: Safety",
		},
		{
			name:        "empty generation",
			err:         &services.ChatError{Outcome: services.OutcomeEmptyGeneration, Detail: "The AI model returned an empty response", Attempts: 1},
			wantStatus:  http.StatusInternalServerError,
			wantError:   "Empty response received",
			wantDetails: "The AI model returned an empty response",
		},
		{
			name:        "quota",
			err:         &services.ChatError{Outcome: services.OutcomeQuota, Detail: "quota exceeded", Attempts: 1},
			wantStatus:  http.StatusTooManyRequests,
			wantError:   "API quota exceeded",
			wantDetails: "The API quota has been exceeded. Please try again later.",
		},
		{
			name:        "auth",
			err:         &services.ChatError{Outcome: services.OutcomeAuth, Detail: "invalid api key", Attempts: 1},
			wantStatus:  http.StatusUnauthorized,
			wantError:   "Authentication failed",
			wantDetails: "Invalid API key or authentication error",
		},
		{
			name:        "retries exhausted",
			err:         &services.ChatError{Outcome: services.OutcomeTransient, Detail: "connection reset", Attempts: 3},
			wantStatus:  http.StatusInternalServerError,
			wantError:   "Failed to generate response",
			wantDetails: "connection reset",
		},
		{
			name:        "unexpected error",
			err:         errors.New("something odd"),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "Failed to generate response",
			wantDetails: "something odd",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestChatHandler(&stubReplier{err: tc.err}, false)

			rr := postChat(h, `{"message": "Hello"}`)

			assert.Equal(t, tc.wantStatus, rr.Code)
			body := decodeErrorBody(t, rr)
			assert.Equal(t, tc.wantError, body.Error)
			assert.Equal(t, tc.wantDetails, body.Details)
			assert.Equal(t, "2024-05-06T07:08:09Z", body.Timestamp)
		})
	}
}

func TestChat_DebugAddsProviderDetail(t *testing.T) {
	err := &services.ChatError{Outcome: services.OutcomeQuota, Detail: "Quota exceeded for project 123", Attempts: 1}
	h, _ := newTestChatHandler(&stubReplier{err: err}, true)

	rr := postChat(h, `{"message": "Hello"}`)

	body := decodeErrorBody(t, rr)
	assert.Contains(t, body.Details, "Quota exceeded for project 123")
}

func TestChat_EndToEndWithChatService(t *testing.T) {
	gen := generatorFunc(func(context.Context, string) (*services.Generation, error) {
		return nil, errors.New("Quota exceeded")
	})
	svc := services.NewChatService(gen, services.DefaultRetryPolicy(), logging.Discard())
	h, rec := newTestChatHandler(svc, false)

	rr := postChat(h, `{"message": "Hello"}`)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, []string{"quota"}, rec.outcomes)
}

type generatorFunc func(ctx context.Context, prompt string) (*services.Generation, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (*services.Generation, error) {
	return f(ctx, prompt)
}

// ─── Health Handler Tests ───

func TestHealth_AlwaysOK(t *testing.T) {
	for _, status := range []string{models.HealthStatusHealthy, models.HealthStatusDegraded} {
		t.Run(status, func(t *testing.T) {
			h := NewHealthHandler(stubChecker{status: models.HealthStatus{Status: status, Version: "1.0.0"}})

			rr := httptest.NewRecorder()
			h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			var body models.HealthStatus
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, status, body.Status)
		})
	}
}

// ─── Misc Handler Tests ───

func TestHome(t *testing.T) {
	rr := httptest.NewRecorder()
	Home(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "TherapyPal API")
}

func TestNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	NotFound(logging.Discard())(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Endpoint not found"}`, rr.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	MethodNotAllowed(logging.Discard())(rr, httptest.NewRequest(http.MethodGet, "/chat", bytes.NewReader(nil)))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "Method not allowed", decodeErrorBody(t, rr).Error)
}
