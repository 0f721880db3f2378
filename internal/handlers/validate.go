package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"therapypal-gateway/internal/models"
)

// MaxMessageLength is counted in characters (code points), not bytes.
const MaxMessageLength = 10000

// maxBodyBytes caps the request body before decoding.
const maxBodyBytes = 1 << 20

type ValidationKind string

const (
	MissingBody    ValidationKind = "MissingBody"
	MissingField   ValidationKind = "MissingField"
	InvalidType    ValidationKind = "InvalidType"
	EmptyMessage   ValidationKind = "EmptyMessage"
	MessageTooLong ValidationKind = "MessageTooLong"
)

type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateChatRequest decodes body into a ChatRequest. The message is
// returned untrimmed; trimming only decides emptiness.
func ValidateChatRequest(body io.Reader) (models.ChatRequest, error) {
	dec := json.NewDecoder(body)

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return models.ChatRequest{}, decodeError(err)
	}
	// The body must hold exactly one JSON document.
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return models.ChatRequest{}, decodeError(err)
	}

	obj, isObject := payload.(map[string]any)
	if !isObject {
		if isEmptyJSON(payload) {
			return models.ChatRequest{}, errNoJSON()
		}
		return models.ChatRequest{}, errMissingMessage()
	}
	if len(obj) == 0 {
		return models.ChatRequest{}, errNoJSON()
	}

	raw, ok := obj["message"]
	if !ok {
		return models.ChatRequest{}, errMissingMessage()
	}

	var message string
	switch v := raw.(type) {
	case nil:
		return models.ChatRequest{}, &ValidationError{Kind: EmptyMessage, Message: "Message cannot be empty"}
	case string:
		message = v
	default:
		return models.ChatRequest{}, &ValidationError{Kind: InvalidType, Message: "Message must be a string"}
	}

	if strings.TrimSpace(message) == "" {
		return models.ChatRequest{}, &ValidationError{Kind: EmptyMessage, Message: "Message cannot be empty"}
	}

	if utf8.RuneCountInString(message) > MaxMessageLength {
		return models.ChatRequest{}, errTooLong()
	}

	return models.ChatRequest{Message: message}, nil
}

// decodeError maps a decoder failure. A nil err means trailing data.
func decodeError(err error) *ValidationError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errTooLong()
	}
	return errNoJSON()
}

// isEmptyJSON reports whether a non-object payload is falsy: null, false,
// zero, an empty string or an empty array.
func isEmptyJSON(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func errNoJSON() *ValidationError {
	return &ValidationError{Kind: MissingBody, Message: "No JSON data provided"}
}

func errMissingMessage() *ValidationError {
	return &ValidationError{Kind: MissingField, Message: "Missing 'message' field in request"}
}

func errTooLong() *ValidationError {
	return &ValidationError{
		Kind:    MessageTooLong,
		Message: fmt.Sprintf("Message too long (max %d characters)", MaxMessageLength),
	}
}
