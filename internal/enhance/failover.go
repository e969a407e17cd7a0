package enhance

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/types"
)

// DefaultFailoverBackoff is the pause between the primary and the fallback attempt.
const DefaultFailoverBackoff = 2 * time.Second

// Keys holds the two upstream credentials. Fallback is optional.
type Keys struct {
	Primary  string
	Fallback string
}

// Result is the text produced by one enhancement and the tier that produced it.
type Result struct {
	Text    string
	UsedKey types.Endpoint
}

// Orchestrator runs one prompt against the primary key and, on any failure, exactly once
// against the fallback key.
type Orchestrator struct {
	caller  llm.Caller
	config  *llm.Config
	keys    Keys
	backoff time.Duration
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithBackoff overrides the pause before the fallback attempt. Zero switches immediately;
// negative durations are ignored.
func WithBackoff(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.backoff = d
		}
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(caller llm.Caller, config *llm.Config, keys Keys, opts ...OrchestratorOption) *Orchestrator {
	if config == nil {
		config = llm.DefaultConfig()
	}
	o := &Orchestrator{
		caller:  caller,
		config:  config,
		keys:    keys,
		backoff: DefaultFailoverBackoff,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HasFallback reports whether a fallback key is configured.
func (o *Orchestrator) HasFallback() bool {
	return o.keys.Fallback != ""
}

// Run executes prompt with failover, publishing every status transition to observer.
func (o *Orchestrator) Run(ctx context.Context, prompt string, mode llm.GenerationMode, observer StatusObserver) (Result, error) {
	observer = orNop(observer)
	if o.keys.Primary == "" {
		err := &ConfigError{Message: "primary API key is not configured"}
		observer.OnStatusChange(types.APIStatus{
			Phase:               types.PhaseError,
			Message:             "API key is not configured",
			ActiveEndpoint:      types.EndpointUnknown,
			UpstreamErrorDetail: err.Message,
		})
		return Result{}, err
	}

	observer.OnStatusChange(types.APIStatus{
		Phase:          types.PhaseProcessing,
		Message:        "Enhancing with primary API...",
		ActiveEndpoint: types.EndpointPrimary,
	})

	var (
		result     Result
		primaryErr *UpstreamError
		attempts   int
	)

	operation := func() error {
		tier, key, timeout := types.EndpointPrimary, o.keys.Primary, o.config.PrimaryTimeout
		if attempts > 0 {
			tier, key, timeout = types.EndpointFallback, o.keys.Fallback, o.config.FallbackTimeout
			observer.OnStatusChange(types.APIStatus{
				Phase:               types.PhaseProcessing,
				Message:             "Retrying with fallback API...",
				ActiveEndpoint:      types.EndpointFallback,
				UpstreamErrorDetail: primaryErr.Outcome.Summary(),
			})
		}
		attempts++

		outcome := o.attempt(ctx, tier, key, timeout, prompt, mode)
		if success, ok := outcome.(llm.Success); ok {
			result = Result{Text: success.Text, UsedKey: tier}
			return nil
		}

		upstreamErr := &UpstreamError{Tier: tier, Outcome: outcome}
		if tier == types.EndpointFallback {
			return backoff.Permanent(&FailoverError{Primary: primaryErr, Fallback: upstreamErr})
		}
		primaryErr = upstreamErr
		if !o.HasFallback() {
			return backoff.Permanent(upstreamErr)
		}
		return upstreamErr
	}

	notify := func(err error, wait time.Duration) {
		log.Printf("[failover] primary API failed, switching to fallback in %s: %s", wait, primaryErr.Outcome.Summary())
		observer.OnStatusChange(types.APIStatus{
			Phase:                 types.PhaseProcessing,
			Message:               "Primary API failed, switching to fallback API...",
			ActiveEndpoint:        types.EndpointPrimary,
			IsSwitchingToFallback: true,
			UpstreamErrorDetail:   primaryErr.Outcome.Summary(),
		})
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(o.backoff), 1), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		o.publishFailure(observer, err)
		return Result{}, err
	}

	observer.OnStatusChange(types.APIStatus{
		Phase:          types.PhaseSuccess,
		Message:        "Enhancement complete",
		ActiveEndpoint: result.UsedKey,
	})
	return result, nil
}

func (o *Orchestrator) attempt(ctx context.Context, tier types.Endpoint, key string, timeout time.Duration, prompt string, mode llm.GenerationMode) llm.Outcome {
	start := time.Now()
	outcome := o.caller.Call(ctx, llm.Call{Prompt: prompt, APIKey: key, Mode: mode, Timeout: timeout})
	observability.ObserveUpstreamAttempt(string(tier), string(outcome.Kind()), time.Since(start))
	if outcome.Kind() != llm.KindSuccess {
		log.Printf("[failover] %s API attempt failed: %s", tier, outcome.Summary())
	}
	return outcome
}

func (o *Orchestrator) publishFailure(observer StatusObserver, err error) {
	status := types.APIStatus{
		Phase:               types.PhaseError,
		Message:             err.Error(),
		ActiveEndpoint:      types.EndpointPrimary,
		UpstreamErrorDetail: err.Error(),
	}

	var failoverErr *FailoverError
	var upstreamErr *UpstreamError
	switch {
	case errors.As(err, &failoverErr):
		status.ActiveEndpoint = types.EndpointFallback
		status.UpstreamErrorDetail = failoverErr.Fallback.Outcome.Summary()
	case errors.As(err, &upstreamErr):
		status.ActiveEndpoint = upstreamErr.Tier
		status.UpstreamErrorDetail = upstreamErr.Outcome.Summary()
	default:
		status.ActiveEndpoint = types.EndpointUnknown
	}
	observer.OnStatusChange(status)
}
