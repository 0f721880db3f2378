package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChatRequest_LengthBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantKind ValidationKind
	}{
		{"single character", "a", ""},
		{"exactly max", strings.Repeat("a", MaxMessageLength), ""},
		{"max in multibyte characters", strings.Repeat("é", MaxMessageLength), ""},
		{"one over max", strings.Repeat("a", MaxMessageLength+1), MessageTooLong},
		{"empty", "", EmptyMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ValidateChatRequest(strings.NewReader(`{"message":"` + tc.message + `"}`))
			if tc.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.message, req.Message)
				return
			}

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.wantKind, ve.Kind)
		})
	}
}

func TestValidateChatRequest_KeepsSurroundingWhitespace(t *testing.T) {
	req, err := ValidateChatRequest(strings.NewReader(`{"message": "  hi  "}`))

	require.NoError(t, err)
	assert.Equal(t, "  hi  ", req.Message)
}

func TestValidateChatRequest_IgnoresExtraFields(t *testing.T) {
	req, err := ValidateChatRequest(strings.NewReader(`{"message": "hi", "history": []}`))

	require.NoError(t, err)
	assert.Equal(t, "hi", req.Message)
}

func TestValidateChatRequest_OversizedBody(t *testing.T) {
	rr := httptest.NewRecorder()
	body := http.MaxBytesReader(rr, io.NopCloser(strings.NewReader(`{"message":"`+strings.Repeat("a", 64)+`"}`)), 16)

	_, err := ValidateChatRequest(body)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, MessageTooLong, ve.Kind)
}

func TestValidateChatRequest_PayloadShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind ValidationKind
	}{
		{"empty array", `[]`, MissingBody},
		{"empty string", `""`, MissingBody},
		{"zero", `0`, MissingBody},
		{"false", `false`, MissingBody},
		{"non-empty array", `[1]`, MissingField},
		{"bare string", `"hello"`, MissingField},
		{"number", `7`, MissingField},
		{"trailing garbage", `{"message":"hi"} trailing`, MissingBody},
		{"second document", `{"message":"hi"}{"message":"again"}`, MissingBody},
		{"stray closing brace", `{"message":"hi"}}`, MissingBody},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateChatRequest(strings.NewReader(tc.body))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.wantKind, ve.Kind)
		})
	}
}

func TestValidateChatRequest_TrailingWhitespaceAccepted(t *testing.T) {
	req, err := ValidateChatRequest(strings.NewReader("{\"message\": \"hi\"}\n\t "))

	require.NoError(t, err)
	assert.Equal(t, "hi", req.Message)
}
