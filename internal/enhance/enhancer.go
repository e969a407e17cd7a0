package enhance

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/types"
)

// TextEnhancer enhances one unit of text.
type TextEnhancer interface {
	EnhanceText(ctx context.Context, req types.EnhancementRequest, observer StatusObserver) (Result, error)
}

// Enhancer validates a request, builds its prompt, runs it with failover and cleans the result.
type Enhancer struct {
	orchestrator *Orchestrator
}

// NewEnhancer creates an Enhancer over an Orchestrator.
func NewEnhancer(orchestrator *Orchestrator) *Enhancer {
	return &Enhancer{orchestrator: orchestrator}
}

// New wires an Enhancer from its parts.
func New(caller llm.Caller, config *llm.Config, keys Keys, opts ...OrchestratorOption) *Enhancer {
	return NewEnhancer(NewOrchestrator(caller, config, keys, opts...))
}

// HasFallback reports whether a fallback key is configured.
func (e *Enhancer) HasFallback() bool {
	return e.orchestrator.HasFallback()
}

// EnhanceText implements TextEnhancer. The observer always sees an idle status first.
// Skill-intent requests return a single title-cased word.
func (e *Enhancer) EnhanceText(ctx context.Context, req types.EnhancementRequest, observer StatusObserver) (Result, error) {
	observer = forwardOnly(observer)
	observer.OnStatusChange(types.IdleStatus())

	if !req.HasInput() {
		return Result{}, &InputError{Message: "text and job title cannot both be empty"}
	}
	if !req.SectionType.Valid() {
		return Result{}, &InputError{Message: fmt.Sprintf("unknown section type %q", req.SectionType)}
	}

	mode := ModeFor(req)
	result, err := e.orchestrator.Run(ctx, BuildPrompt(req), mode, observer)
	if err != nil {
		return Result{}, err
	}

	if mode == llm.ModeOneWord {
		word, err := OneWord(result.Text)
		if err != nil {
			log.Printf("[enhance] could not extract a skill word from %q", result.Text)
			return Result{}, fmt.Errorf("failed to extract skill: %w", err)
		}
		result.Text = word
		return result, nil
	}

	result.Text = Normalize(result.Text)
	return result, nil
}
