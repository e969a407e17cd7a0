package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCaller(t *testing.T, handler http.HandlerFunc) *RESTCaller {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := DefaultConfig()
	config.Endpoint = srv.URL
	return NewRESTCaller(config, srv.Client())
}

func TestRESTCaller_RequestShape(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	caller := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]},"finishReason":"STOP"}]}`))
	})

	outcome := caller.Call(context.Background(), Call{Prompt: "hello", APIKey: "k-123", Mode: ModeOneWord, Timeout: time.Second})

	require.Equal(t, KindSuccess, outcome.Kind())
	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "k-123", gotKey)

	contents := gotBody["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	assert.Equal(t, "hello", parts[0].(map[string]any)["text"])

	genConfig := gotBody["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.8, genConfig["temperature"], 0.001)
	assert.Equal(t, float64(10), genConfig["maxOutputTokens"])
}

func TestRESTCaller_StandardModeParameters(t *testing.T) {
	var genConfig map[string]any
	caller := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		genConfig = body["generationConfig"].(map[string]any)
		_, _ = w.Write([]byte(`{"text":"plain"}`))
	})

	outcome := caller.Call(context.Background(), Call{Prompt: "p", APIKey: "k", Mode: ModeStandard, Timeout: time.Second})

	assert.Equal(t, Success{Text: "plain"}, outcome)
	assert.InDelta(t, 0.7, genConfig["temperature"], 0.001)
	assert.Equal(t, float64(1024), genConfig["maxOutputTokens"])
}

func TestRESTCaller_NonSuccessStatus(t *testing.T) {
	caller := newTestCaller(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	outcome := caller.Call(context.Background(), Call{Prompt: "p", APIKey: "k", Timeout: time.Second})

	te, ok := outcome.(TransportError)
	require.True(t, ok, "expected TransportError, got %T", outcome)
	assert.Equal(t, http.StatusTooManyRequests, te.HTTPStatus)
	assert.Equal(t, "RESOURCE_EXHAUSTED", te.Code)
	assert.Equal(t, "Resource has been exhausted", te.Message)
	assert.Contains(t, te.Summary(), "HTTP 429")
}

func TestRESTCaller_NonJSONErrorBody(t *testing.T) {
	caller := newTestCaller(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	outcome := caller.Call(context.Background(), Call{Prompt: "p", APIKey: "k", Timeout: time.Second})

	te := outcome.(TransportError)
	assert.Equal(t, http.StatusBadGateway, te.HTTPStatus)
	assert.Equal(t, "Bad Gateway", te.Code)
	assert.Equal(t, "upstream down", te.Message)
}

func TestRESTCaller_Timeout(t *testing.T) {
	caller := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	start := time.Now()
	outcome := caller.Call(context.Background(), Call{Prompt: "p", APIKey: "k", Timeout: 50 * time.Millisecond})

	te, ok := outcome.(TransportError)
	require.True(t, ok)
	assert.Equal(t, CodeTimeout, te.Code)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRESTCaller_NetworkErrorDoesNotLeakKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	config := DefaultConfig()
	config.Endpoint = endpoint
	caller := NewRESTCaller(config, nil)

	outcome := caller.Call(context.Background(), Call{Prompt: "p", APIKey: "super-secret-key", Timeout: time.Second})

	require.Equal(t, KindTransportError, outcome.Kind())
	assert.NotContains(t, outcome.Summary(), "super-secret-key")
}

func TestClassifyResponseBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected Outcome
	}{
		{
			name:     "primary read path",
			body:     `{"candidates":[{"content":{"parts":[{"text":"Enhanced"}]},"finishReason":"STOP"}]}`,
			expected: Success{Text: "Enhanced"},
		},
		{
			name:     "outputs read path",
			body:     `{"candidates":[{"outputs":[{"text":"From outputs"}]}]}`,
			expected: Success{Text: "From outputs"},
		},
		{
			name:     "top-level text read path",
			body:     `{"text":"Top level"}`,
			expected: Success{Text: "Top level"},
		},
		{
			name:     "text present despite max tokens",
			body:     `{"candidates":[{"content":{"parts":[{"text":"Partial"}]},"finishReason":"MAX_TOKENS"}]}`,
			expected: Success{Text: "Partial"},
		},
		{
			name:     "empty candidates means quota exhausted",
			body:     `{"candidates":[]}`,
			expected: EmptyResponse{Reason: ReasonQuotaExhausted},
		},
		{
			name:     "prompt blocked",
			body:     `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			expected: EmptyResponse{Reason: ReasonSafetyBlock},
		},
		{
			name:     "safety finish",
			body:     `{"candidates":[{"finishReason":"SAFETY"}]}`,
			expected: EmptyResponse{Reason: ReasonSafetyBlock},
		},
		{
			name:     "recitation finish",
			body:     `{"candidates":[{"content":{"parts":[]},"finishReason":"RECITATION"}]}`,
			expected: EmptyResponse{Reason: ReasonRecitation},
		},
		{
			name:     "max tokens without text",
			body:     `{"candidates":[{"finishReason":"MAX_TOKENS"}]}`,
			expected: EmptyResponse{Reason: ReasonMaxTokens},
		},
		{
			name:     "unknown finish",
			body:     `{"candidates":[{"finishReason":"LANGUAGE"}]}`,
			expected: EmptyResponse{Reason: ReasonOther},
		},
		{
			name:     "stop without text",
			body:     `{"candidates":[{"content":{"parts":[{"text":"  "}]},"finishReason":"STOP"}]}`,
			expected: noValidResponse(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyResponseBody([]byte(tt.body)))
		})
	}
}

func TestClassifyResponseBody_Malformed(t *testing.T) {
	outcome := ClassifyResponseBody([]byte(`{not json`))
	te, ok := outcome.(TransportError)
	require.True(t, ok)
	assert.Equal(t, CodeBadBody, te.Code)
}
