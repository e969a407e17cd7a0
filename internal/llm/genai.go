package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GenAICaller reaches the upstream through the Gemini Go SDK.
// A client is created per call because each call may carry a different key.
type GenAICaller struct {
	config *Config
}

// NewGenAICaller creates an SDK-backed caller.
func NewGenAICaller(config *Config) *GenAICaller {
	return &GenAICaller{config: config}
}

// Call implements Caller.
func (c *GenAICaller) Call(ctx context.Context, call Call) Outcome {
	ctx, cancel := withTimeout(ctx, call.Timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(call.APIKey))
	if err != nil {
		return TransportError{Code: CodeNetwork, Message: fmt.Sprintf("failed to create Gemini client: %v", err)}
	}
	defer func() { _ = client.Close() }()

	model := client.GenerativeModel(c.config.Model)
	model.SetTemperature(call.Mode.Temperature())
	model.SetMaxOutputTokens(call.Mode.MaxOutputTokens())

	resp, err := model.GenerateContent(ctx, genai.Text(call.Prompt))
	if err != nil {
		return classifySDKError(ctx, err)
	}
	return classifySDKResponse(resp)
}

// classifySDKResponse applies the same rules as ClassifyResponseBody to an SDK response.
func classifySDKResponse(resp *genai.GenerateContentResponse) Outcome {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return EmptyResponse{Reason: reasonFromBlock(resp.PromptFeedback.BlockReason)}
		}
		return EmptyResponse{Reason: ReasonQuotaExhausted}
	}

	candidate := resp.Candidates[0]
	if text := candidateText(candidate); strings.TrimSpace(text) != "" {
		return Success{Text: text}
	}

	switch candidate.FinishReason {
	case genai.FinishReasonUnspecified, genai.FinishReasonStop:
		return noValidResponse()
	default:
		return EmptyResponse{Reason: reasonFromSDKFinish(candidate.FinishReason)}
	}
}

func candidateText(c *genai.Candidate) string {
	if c == nil || c.Content == nil {
		return ""
	}
	var parts []string
	for _, part := range c.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	return strings.Join(parts, "")
}

// classifySDKError maps SDK errors onto outcomes. Blocked responses are expected outcomes, not failures.
func classifySDKError(ctx context.Context, err error) Outcome {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		if blocked.PromptFeedback != nil {
			return EmptyResponse{Reason: reasonFromBlock(blocked.PromptFeedback.BlockReason)}
		}
		if blocked.Candidate != nil {
			return EmptyResponse{Reason: reasonFromSDKFinish(blocked.Candidate.FinishReason)}
		}
		return EmptyResponse{Reason: ReasonOther}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return TransportError{
			HTTPStatus: apiErr.Code,
			Code:       http.StatusText(apiErr.Code),
			Message:    apiErr.Message,
		}
	}

	return classifyRequestError(ctx, err)
}

func reasonFromSDKFinish(r genai.FinishReason) EmptyReason {
	switch r {
	case genai.FinishReasonMaxTokens:
		return ReasonMaxTokens
	case genai.FinishReasonSafety:
		return ReasonSafetyBlock
	case genai.FinishReasonRecitation:
		return ReasonRecitation
	default:
		return ReasonOther
	}
}

func reasonFromBlock(r genai.BlockReason) EmptyReason {
	if r == genai.BlockReasonSafety {
		return ReasonSafetyBlock
	}
	return ReasonOther
}
