package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy for the synthesis exchange. Every sentinel carries a
// message suitable for showing to the user directly.
var (
	// ErrMissingCredential is a precondition failure: no API key was
	// configured, so no request was attempted.
	ErrMissingCredential = errors.New("no API key is configured; set GEMINI_API_KEY (or OPENAI_API_KEY) and try again")

	// ErrInvalidCredential means the service rejected the key.
	ErrInvalidCredential = errors.New("the API key was rejected; check that it is valid and has access to the speech model")

	// ErrRateLimited means the service throttled us.
	ErrRateLimited = errors.New("the speech service rate limit was exceeded; wait a moment and try again")

	// ErrServiceUnavailable covers remote 5xx and outages.
	ErrServiceUnavailable = errors.New("the speech service is currently unavailable; try again later")

	// ErrMalformedRequest means the service could not process the request.
	ErrMalformedRequest = errors.New("the speech service rejected the request as invalid")

	// ErrSynthesisFailed is the catch-all for everything else.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
)

// Classify maps an error from the remote exchange onto the failure
// taxonomy by pattern-matching its message, wrapping the original cause.
// Errors already carrying a taxonomy sentinel pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrMissingCredential,
		ErrInvalidCredential,
		ErrRateLimited,
		ErrServiceUnavailable,
		ErrMalformedRequest,
		ErrSynthesisFailed,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "api key", "api_key", "permission denied", "unauthorized", "401", "403"):
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	case containsAny(msg, "rate limit", "quota", "resource_exhausted", "too many requests", "429"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case containsAny(msg, "500", "503", "server error", "internal error", "unavailable", "overloaded"):
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	case containsAny(msg, "400", "invalid argument", "invalid request", "bad request"):
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	default:
		return fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
}

// UserMessage extracts the user-facing message for a classified error.
func UserMessage(err error) string {
	for _, sentinel := range []error{
		ErrMissingCredential,
		ErrInvalidCredential,
		ErrRateLimited,
		ErrServiceUnavailable,
		ErrMalformedRequest,
		ErrSynthesisFailed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
