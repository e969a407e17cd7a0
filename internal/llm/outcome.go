package llm

import (
	"fmt"
	"strings"
)

// OutcomeKind tags the variants of Outcome.
type OutcomeKind string

// Outcome kinds.
const (
	KindSuccess        OutcomeKind = "success"
	KindEmptyResponse  OutcomeKind = "empty_response"
	KindTransportError OutcomeKind = "transport_error"
)

// Outcome is the classified result of one upstream attempt.
// It is one of Success, EmptyResponse or TransportError.
type Outcome interface {
	Kind() OutcomeKind
	// Summary is a human-readable description safe to show operators. It never contains the API key.
	Summary() string
}

// Success carries generated text.
type Success struct {
	Text string
}

// Kind implements Outcome.
func (Success) Kind() OutcomeKind { return KindSuccess }

// Summary implements Outcome.
func (s Success) Summary() string { return "success" }

// EmptyReason explains a 2xx response that carried no usable text.
type EmptyReason string

// Empty response reasons.
const (
	ReasonMaxTokens      EmptyReason = "MAX_TOKENS"
	ReasonSafetyBlock    EmptyReason = "SAFETY"
	ReasonRecitation     EmptyReason = "RECITATION"
	ReasonQuotaExhausted EmptyReason = "QUOTA_EXHAUSTED"
	ReasonOther          EmptyReason = "OTHER"
)

var emptyReasonText = map[EmptyReason]string{
	ReasonMaxTokens:      "response truncated by the output token limit",
	ReasonSafetyBlock:    "response blocked by safety filters",
	ReasonRecitation:     "response blocked for recitation",
	ReasonQuotaExhausted: "no candidates returned (quota likely exhausted)",
	ReasonOther:          "response blocked by upstream policy",
}

// EmptyResponse is a 2xx response without usable text.
type EmptyResponse struct {
	Reason EmptyReason
}

// Kind implements Outcome.
func (EmptyResponse) Kind() OutcomeKind { return KindEmptyResponse }

// Summary implements Outcome.
func (e EmptyResponse) Summary() string {
	text, ok := emptyReasonText[e.Reason]
	if !ok {
		text = emptyReasonText[ReasonOther]
	}
	return fmt.Sprintf("empty response: %s", text)
}

// Transport error codes set by the callers when no upstream status is available.
const (
	CodeTimeout    = "TIMEOUT"
	CodeCanceled   = "CANCELED"
	CodeNetwork    = "NETWORK_ERROR"
	CodeBadBody    = "INVALID_RESPONSE"
	CodeNoResponse = "NO_VALID_RESPONSE"
)

// TransportError is a network failure, timeout, non-2xx status or malformed body.
type TransportError struct {
	HTTPStatus int // 0 when no response was received
	Code       string
	Message    string
}

// Kind implements Outcome.
func (TransportError) Kind() OutcomeKind { return KindTransportError }

// Summary implements Outcome.
func (e TransportError) Summary() string {
	var sb strings.Builder
	if e.HTTPStatus > 0 {
		sb.WriteString(fmt.Sprintf("HTTP %d", e.HTTPStatus))
	} else {
		sb.WriteString("request failed")
	}
	if e.Code != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Code))
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// noValidResponse is returned for 2xx bodies that carry neither text nor a diagnosable reason.
func noValidResponse() TransportError {
	return TransportError{Code: CodeNoResponse, Message: "no valid response from upstream"}
}

// reasonFromFinish maps a candidate finish reason onto an EmptyReason.
func reasonFromFinish(finish string) EmptyReason {
	switch strings.ToUpper(finish) {
	case "MAX_TOKENS":
		return ReasonMaxTokens
	case "SAFETY", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return ReasonSafetyBlock
	case "RECITATION":
		return ReasonRecitation
	default:
		return ReasonOther
	}
}

// isStopReason reports whether a finish reason means normal completion.
func isStopReason(finish string) bool {
	switch strings.ToUpper(finish) {
	case "", "STOP", "FINISH_REASON_UNSPECIFIED":
		return true
	}
	return false
}
