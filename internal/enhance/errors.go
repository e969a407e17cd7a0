// Package enhance turns one piece of resume text into enhanced text: it builds the prompt,
// drives the two-tier upstream failover and cleans the generated response.
package enhance

import (
	"errors"
	"fmt"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/types"
)

// InputError is returned when a request carries neither text nor a job title.
// It is raised before any upstream call is made.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid enhancement request: %s", e.Message)
}

// ConfigError indicates the enhancer cannot run with the current configuration.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// UpstreamError is a failed attempt against one key tier.
type UpstreamError struct {
	Tier    types.Endpoint
	Outcome llm.Outcome
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API failed: %s", e.Tier, e.Outcome.Summary())
}

// FailoverError is returned when both the primary and the fallback tier failed.
type FailoverError struct {
	Primary  *UpstreamError
	Fallback *UpstreamError
}

func (e *FailoverError) Error() string {
	return fmt.Sprintf("both API keys failed. Primary: %s. Fallback: %s",
		e.Primary.Outcome.Summary(), e.Fallback.Outcome.Summary())
}

func (e *FailoverError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

// ErrNoWord is returned by OneWord when the text has no alphabetic first token.
var ErrNoWord = errors.New("no usable word in generated text")

// ErrorDetail describes a failure for API responses.
type ErrorDetail struct {
	Code            string `json:"code"`
	Type            string `json:"type"`
	OriginalMessage string `json:"originalMessage"`
}

// DetailFor extracts a structured description of an enhancement error.
func DetailFor(err error) ErrorDetail {
	var (
		inputErr    *InputError
		configErr   *ConfigError
		failoverErr *FailoverError
		upstreamErr *UpstreamError
	)
	switch {
	case errors.As(err, &inputErr):
		return ErrorDetail{Code: "INVALID_REQUEST", Type: "input_error", OriginalMessage: inputErr.Message}
	case errors.As(err, &configErr):
		return ErrorDetail{Code: "MISSING_API_KEY", Type: "config_error", OriginalMessage: configErr.Message}
	case errors.As(err, &failoverErr):
		return detailForOutcome("both_tiers_failed", failoverErr.Fallback.Outcome, failoverErr.Error())
	case errors.As(err, &upstreamErr):
		return detailForOutcome(string(upstreamErr.Outcome.Kind()), upstreamErr.Outcome, upstreamErr.Outcome.Summary())
	default:
		return ErrorDetail{Code: "UNKNOWN", Type: "internal_error", OriginalMessage: err.Error()}
	}
}

func detailForOutcome(typ string, outcome llm.Outcome, message string) ErrorDetail {
	detail := ErrorDetail{Type: typ, OriginalMessage: message}
	switch o := outcome.(type) {
	case llm.EmptyResponse:
		detail.Code = string(o.Reason)
	case llm.TransportError:
		detail.Code = o.Code
		if detail.Code == "" && o.HTTPStatus > 0 {
			detail.Code = fmt.Sprintf("HTTP_%d", o.HTTPStatus)
		}
	}
	return detail
}
