// Package pipeline maps a resume section onto enhancement calls and merges the results
// back into the resume.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-builder/internal/enhance"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/skills"
	"github.com/jonathan/resume-builder/internal/types"
)

// maxParallel bounds concurrent upstream calls for one list section.
const maxParallel = 4

// State is the dispatcher state reported with each progress event.
type State string

// Dispatcher states.
const (
	StateIdle      State = "idle"
	StateEnhancing State = "enhancing"
	StateSectionOK State = "section_done"
	StateFailed    State = "failed"
	StateAllDone   State = "all_done"
	StateCanceled  State = "canceled"
)

// ProgressEvent represents a progress update during a dispatch
type ProgressEvent struct {
	State     State             `json:"state"`
	Section   types.SectionType `json:"section,omitempty"`
	Label     string            `json:"label,omitempty"`
	Message   string            `json:"message"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Error     string            `json:"error,omitempty"`
}

// ProgressCallback is called when dispatch progress occurs
type ProgressCallback func(event ProgressEvent)

// Options holds the context for one dispatch.
type Options struct {
	JobTitle   string
	Industry   string
	Observer   enhance.StatusObserver
	OnProgress ProgressCallback
}

// Result lists the sections that were fully enhanced, in order.
type Result struct {
	EnhancedSections []types.SectionType `json:"enhancedSections"`
}

// SectionError wraps a failure with the section it happened in.
type SectionError struct {
	Section types.SectionType
	Label   string
	Cause   error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("failed to enhance %s: %v", e.Label, e.Cause)
}

func (e *SectionError) Unwrap() error {
	return e.Cause
}

// Dispatcher enhances resume sections.
type Dispatcher struct {
	enhancer enhance.TextEnhancer
	skills   *skills.Engine
}

// NewDispatcher creates a Dispatcher. Skills are handled by a uniqueness engine over the same enhancer.
func NewDispatcher(enhancer enhance.TextEnhancer) *Dispatcher {
	return &Dispatcher{
		enhancer: enhancer,
		skills:   skills.NewEngine(enhancer),
	}
}

// Enhance runs section against resume, replacing enhanced fields in place.
// For types.SectionFull the sections of FullSequence run in order and the first failure
// aborts the rest. Fields written before a failure are kept. Nothing is written after ctx is done.
func (d *Dispatcher) Enhance(ctx context.Context, section types.SectionType, resume *types.Resume, opts Options) (Result, error) {
	var result Result
	if resume == nil {
		return result, errors.New("resume is required")
	}
	if !section.Valid() {
		return result, fmt.Errorf("unknown section type %q", section)
	}

	opts.Observer = enhance.Synchronized(opts.Observer)

	sequence := []types.SectionType{section}
	if section == types.SectionFull {
		sequence = FullSequence
	}

	emit(opts, ProgressEvent{State: StateIdle, Message: "Starting enhancement", Total: len(sequence)})

	for i, current := range sequence {
		if err := ctx.Err(); err != nil {
			emit(opts, ProgressEvent{State: StateCanceled, Message: "Enhancement canceled", Completed: i, Total: len(sequence)})
			return result, err
		}

		emit(opts, ProgressEvent{
			State:     StateEnhancing,
			Section:   current,
			Label:     current.Label(),
			Message:   fmt.Sprintf("Enhancing %s...", current.Label()),
			Completed: i,
			Total:     len(sequence),
		})

		err := d.enhanceSection(ctx, current, resume, opts)
		observability.ObserveSection(string(current), err)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				emit(opts, ProgressEvent{State: StateCanceled, Section: current, Label: current.Label(), Message: "Enhancement canceled", Completed: i, Total: len(sequence)})
				return result, err
			}
			sectionErr := &SectionError{Section: current, Label: current.Label(), Cause: err}
			log.Printf("[dispatch] %v", sectionErr)
			emit(opts, ProgressEvent{
				State:     StateFailed,
				Section:   current,
				Label:     current.Label(),
				Message:   sectionErr.Error(),
				Completed: i,
				Total:     len(sequence),
				Error:     err.Error(),
			})
			return result, sectionErr
		}

		result.EnhancedSections = append(result.EnhancedSections, current)
		emit(opts, ProgressEvent{
			State:     StateSectionOK,
			Section:   current,
			Label:     current.Label(),
			Message:   fmt.Sprintf("%s enhanced", current.Label()),
			Completed: i + 1,
			Total:     len(sequence),
		})
	}

	emit(opts, ProgressEvent{State: StateAllDone, Message: "Enhancement complete", Completed: len(sequence), Total: len(sequence)})
	return result, nil
}

func (d *Dispatcher) enhanceSection(ctx context.Context, section types.SectionType, resume *types.Resume, opts Options) error {
	switch section {
	case types.SectionSummary:
		return d.enhanceSummary(ctx, resume, opts)
	case types.SectionSkills:
		return d.enhanceSkills(ctx, resume, opts)
	}
	list, ok := listRegistry[section]
	if !ok {
		return fmt.Errorf("section %q cannot be enhanced directly", section)
	}
	return d.enhanceList(ctx, section, list, resume, opts)
}

func (d *Dispatcher) enhanceSummary(ctx context.Context, resume *types.Resume, opts Options) error {
	res, err := d.enhancer.EnhanceText(ctx, types.EnhancementRequest{
		SourceText:  resume.Summary,
		SectionType: types.SectionSummary,
		JobTitle:    firstNonEmpty(opts.JobTitle, resume.Title),
		Industry:    opts.Industry,
	}, opts.Observer)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	resume.Summary = res.Text
	return nil
}

func (d *Dispatcher) enhanceSkills(ctx context.Context, resume *types.Resume, opts Options) error {
	out, err := d.skills.Enhance(ctx, resume.Skills, skills.Options{
		JobTitle: firstNonEmpty(opts.JobTitle, resume.Title),
		Industry: opts.Industry,
		Observer: opts.Observer,
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	resume.Skills = out
	return nil
}

// enhanceList enhances every element of a repeated section concurrently. Results are merged
// by index. Elements with neither text nor job title context are left as they are.
func (d *Dispatcher) enhanceList(ctx context.Context, section types.SectionType, list listSection, resume *types.Resume, opts Options) error {
	n := list.count(resume)
	requests := make([]*types.EnhancementRequest, n)
	for i := 0; i < n; i++ {
		text := list.read(resume, i)
		if list.skipEmpty && strings.TrimSpace(text) == "" {
			continue
		}
		jobTitle := opts.JobTitle
		if jobTitle == "" && list.context != nil {
			jobTitle = list.context(resume, i)
		}
		req := types.EnhancementRequest{
			SourceText:  text,
			SectionType: section,
			JobTitle:    firstNonEmpty(jobTitle, resume.Title),
			Industry:    opts.Industry,
		}
		if !req.HasInput() {
			continue
		}
		requests[i] = &req
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, req := range requests {
		if req == nil {
			continue
		}
		g.Go(func() error {
			res, err := d.enhancer.EnhanceText(gCtx, *req, opts.Observer)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i+1, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if err := ctx.Err(); err != nil {
				return err
			}
			list.write(resume, i, res.Text)
			return nil
		})
	}

	return g.Wait()
}

func emit(opts Options, event ProgressEvent) {
	if opts.OnProgress != nil {
		opts.OnProgress(event)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
