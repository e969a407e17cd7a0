package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody bounds how much of a non-2xx body is read for diagnostics.
const maxErrorBody = 64 << 10

// RESTCaller posts generateContent requests over plain HTTP.
type RESTCaller struct {
	config     *Config
	httpClient *http.Client
}

// NewRESTCaller creates a REST caller. A nil httpClient uses http.DefaultClient.
func NewRESTCaller(config *Config, httpClient *http.Client) *RESTCaller {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTCaller{config: config, httpClient: httpClient}
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int32   `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates     []responseCandidate `json:"candidates"`
	PromptFeedback *promptFeedback     `json:"promptFeedback,omitempty"`
	Text           string              `json:"text,omitempty"`
}

type responseCandidate struct {
	Content *struct {
		Parts []textPart `json:"parts"`
	} `json:"content,omitempty"`
	Outputs      []textPart `json:"outputs,omitempty"`
	FinishReason string     `json:"finishReason,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Call implements Caller.
func (c *RESTCaller) Call(ctx context.Context, call Call) Outcome {
	ctx, cancel := withTimeout(ctx, call.Timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Contents: []requestContent{{Parts: []textPart{{Text: call.Prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     call.Mode.Temperature(),
			MaxOutputTokens: call.Mode.MaxOutputTokens(),
		},
	})
	if err != nil {
		return TransportError{Code: CodeNetwork, Message: fmt.Sprintf("failed to encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(call.APIKey), bytes.NewReader(body))
	if err != nil {
		return TransportError{Code: CodeNetwork, Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyRequestError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return classifyErrorBody(resp.StatusCode, raw)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyRequestError(ctx, err)
	}
	return ClassifyResponseBody(raw)
}

// endpointURL builds the generateContent URL. The key is only ever placed in the query string.
func (c *RESTCaller) endpointURL(apiKey string) string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.config.Endpoint, "/"),
		url.PathEscape(c.config.Model),
		url.QueryEscape(apiKey))
}

// ClassifyResponseBody classifies a 2xx generateContent body.
// Text is read from candidates[0].content.parts[0].text, then candidates[0].outputs[0].text, then text.
func ClassifyResponseBody(raw []byte) Outcome {
	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return TransportError{Code: CodeBadBody, Message: fmt.Sprintf("malformed response body: %v", err)}
	}

	if text := resp.firstText(); strings.TrimSpace(text) != "" {
		return Success{Text: text}
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return EmptyResponse{Reason: reasonFromFinish(resp.PromptFeedback.BlockReason)}
		}
		return EmptyResponse{Reason: ReasonQuotaExhausted}
	}

	if finish := resp.Candidates[0].FinishReason; !isStopReason(finish) {
		return EmptyResponse{Reason: reasonFromFinish(finish)}
	}

	return noValidResponse()
}

func (r *generateResponse) firstText() string {
	if len(r.Candidates) > 0 {
		c := r.Candidates[0]
		if c.Content != nil && len(c.Content.Parts) > 0 && c.Content.Parts[0].Text != "" {
			return c.Content.Parts[0].Text
		}
		if len(c.Outputs) > 0 && c.Outputs[0].Text != "" {
			return c.Outputs[0].Text
		}
	}
	return r.Text
}

// classifyErrorBody turns a non-2xx response into a TransportError.
func classifyErrorBody(status int, raw []byte) TransportError {
	out := TransportError{HTTPStatus: status, Code: http.StatusText(status)}
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && (env.Error.Message != "" || env.Error.Status != "") {
		if env.Error.Status != "" {
			out.Code = env.Error.Status
		}
		out.Message = env.Error.Message
		return out
	}
	out.Message = strings.TrimSpace(string(raw))
	return out
}

// classifyRequestError maps a client-side failure onto a TransportError.
// url.Error values are unwrapped so the request URL, and with it the key, never reaches the message.
func classifyRequestError(ctx context.Context, err error) TransportError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return TransportError{Code: CodeTimeout, Message: "upstream request timed out"}
	}
	if errors.Is(err, context.Canceled) {
		return TransportError{Code: CodeCanceled, Message: "upstream request canceled"}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return TransportError{Code: CodeTimeout, Message: "upstream request timed out"}
		}
		err = urlErr.Err
	}
	return TransportError{Code: CodeNetwork, Message: err.Error()}
}
