package llm

import (
	"context"
	"net/http"
	"time"
)

// Call is one upstream request.
type Call struct {
	Prompt  string
	APIKey  string
	Mode    GenerationMode
	Timeout time.Duration
}

// Caller issues a single upstream request and classifies the result.
// Implementations bound the call by Call.Timeout and report a timeout as a TransportError.
type Caller interface {
	Call(ctx context.Context, call Call) Outcome
}

// NewCaller returns the Caller for the configured transport.
func NewCaller(config *Config, httpClient *http.Client) Caller {
	if config == nil {
		config = DefaultConfig()
	}
	switch config.Transport {
	case TransportSDK:
		return NewGenAICaller(config)
	default:
		return NewRESTCaller(config, httpClient)
	}
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
