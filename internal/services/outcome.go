package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

// Outcome is the result of one provider attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSafetyBlock
	OutcomeEmptyGeneration
	OutcomeAuth
	OutcomeQuota
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSafetyBlock:
		return "safety_block"
	case OutcomeEmptyGeneration:
		return "empty_generation"
	case OutcomeAuth:
		return "auth"
	case OutcomeQuota:
		return "quota"
	case OutcomeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Retryable reports whether another attempt may change the result.
func (o Outcome) Retryable() bool {
	return o == OutcomeTransient
}

// Classification is the typed verdict on a provider call.
type Classification struct {
	Outcome Outcome
	Detail  string
	// Recognized is false for transient errors that matched no known
	// provider signal; those are logged separately.
	Recognized bool
}

const emptyGenerationDetail = "The AI model returned an empty response"

// Error text matching is best-effort: wording varies across provider versions,
// so status codes are checked as well.
var (
	quotaPhrases = []string{"quota exceeded"}
	authPhrases  = []string{"invalid api key", "authentication", "api key not valid"}
)

// Classify turns the raw result of a provider call into an Outcome. It is the
// only place provider errors are inspected.
func Classify(gen *Generation, err error) Classification {
	if err != nil {
		return classifyError(err)
	}

	if gen == nil || gen.Text == "" {
		if gen != nil && gen.Feedback != "" {
			return Classification{Outcome: OutcomeSafetyBlock, Detail: gen.Feedback, Recognized: true}
		}
		return Classification{Outcome: OutcomeEmptyGeneration, Detail: emptyGenerationDetail, Recognized: true}
	}

	return Classification{Outcome: OutcomeSuccess, Recognized: true}
}

func classifyError(err error) Classification {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return Classification{Outcome: OutcomeSafetyBlock, Detail: blocked.Error(), Recognized: true}
	}

	msg := strings.ToLower(err.Error())
	grpcCode, httpCode := statusCodes(err)

	if containsAny(msg, quotaPhrases) || grpcCode == codes.ResourceExhausted || httpCode == http.StatusTooManyRequests {
		return Classification{Outcome: OutcomeQuota, Detail: err.Error(), Recognized: true}
	}

	if containsAny(msg, authPhrases) ||
		grpcCode == codes.Unauthenticated || grpcCode == codes.PermissionDenied ||
		httpCode == http.StatusUnauthorized || httpCode == http.StatusForbidden {
		return Classification{Outcome: OutcomeAuth, Detail: err.Error(), Recognized: true}
	}

	recognized := false
	switch grpcCode {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
		recognized = true
	}
	if httpCode >= http.StatusInternalServerError {
		recognized = true
	}

	return Classification{Outcome: OutcomeTransient, Detail: err.Error(), Recognized: recognized}
}

// statusCodes extracts gRPC and HTTP codes from provider errors. Absent
// codes are returned as codes.OK and 0.
func statusCodes(err error) (codes.Code, int) {
	grpcCode := codes.OK
	httpCode := 0

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		grpcCode = apiErr.GRPCStatus().Code()
		if c := apiErr.HTTPCode(); c > 0 {
			httpCode = c
		}
	}

	var gErr *googleapi.Error
	if httpCode == 0 && errors.As(err, &gErr) {
		httpCode = gErr.Code
	}

	return grpcCode, httpCode
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
