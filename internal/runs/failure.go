package runs

import (
	"net/http"
	"strings"

	"bridge/internal/client"
)

type FailureKind uint8

const (
	FailureUnknown FailureKind = iota
	FailureValidation
	FailureRateLimited
	FailureQuotaExceeded
	FailureNotFound
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureRateLimited:
		return "rate_limited"
	case FailureQuotaExceeded:
		return "quota_exceeded"
	case FailureNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Failure is the user-facing category of a command that did not take
// effect. Commands never retry on their own; a rate-limited start must
// be retried by the caller.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f Failure) Error() string {
	msg := strings.TrimSpace(f.Message)
	if msg == "" {
		return f.Kind.String()
	}
	return f.Kind.String() + ": " + msg
}

func validationFailure(msg string) Failure {
	return Failure{Kind: FailureValidation, Message: msg}
}

// ClassifyError maps a transport failure onto the taxonomy. HTTP 429
// means the backend refused another concurrent run, 402 means a plan
// limit was hit. Everything else passes through with its message.
func ClassifyError(err error) Failure {
	if err == nil {
		return Failure{}
	}
	apiErr := client.AsAPIError(err)
	if apiErr == nil {
		return Failure{Kind: FailureUnknown, Message: err.Error()}
	}
	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		return Failure{Kind: FailureRateLimited, Message: "too many concurrent runs"}
	case http.StatusPaymentRequired:
		return Failure{Kind: FailureQuotaExceeded, Message: apiErr.Message}
	case http.StatusNotFound:
		return Failure{Kind: FailureNotFound, Message: apiErr.Message}
	default:
		return Failure{Kind: FailureUnknown, Message: apiErr.Message}
	}
}
