package enhance

import (
	"context"
	"sync"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/types"
)

const (
	testPrimaryKey  = "primary-key"
	testFallbackKey = "fallback-key"
)

// scriptedCaller answers each key from its own script. The last outcome of a script repeats.
type scriptedCaller struct {
	mu      sync.Mutex
	scripts map[string][]llm.Outcome
	calls   []llm.Call
}

func newScriptedCaller(scripts map[string][]llm.Outcome) *scriptedCaller {
	return &scriptedCaller{scripts: scripts}
}

func (c *scriptedCaller) Call(_ context.Context, call llm.Call) llm.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)

	script := c.scripts[call.APIKey]
	if len(script) == 0 {
		return llm.TransportError{HTTPStatus: 401, Code: "UNAUTHENTICATED", Message: "unknown key"}
	}
	outcome := script[0]
	if len(script) > 1 {
		c.scripts[call.APIKey] = script[1:]
	}
	return outcome
}

func (c *scriptedCaller) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *scriptedCaller) keysCalled() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, len(c.calls))
	for i, call := range c.calls {
		keys[i] = call.APIKey
	}
	return keys
}

type statusRecorder struct {
	mu       sync.Mutex
	statuses []types.APIStatus
}

func (r *statusRecorder) OnStatusChange(status types.APIStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *statusRecorder) last() types.APIStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return types.APIStatus{}
	}
	return r.statuses[len(r.statuses)-1]
}

func (r *statusRecorder) snapshot() []types.APIStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.APIStatus(nil), r.statuses...)
}
