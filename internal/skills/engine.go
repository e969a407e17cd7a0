package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-builder/internal/enhance"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/types"
)

// minTokenLength is the exclusive lower bound on accepted token length.
const minTokenLength = 2

// Fallback kinds recorded in metrics.
const (
	fallbackVocabulary  = "vocabulary"
	fallbackPlaceholder = "placeholder"
	fallbackGeneration  = "generation_error"
)

// StructureError reports a skills input that is not a list of {category, items}.
type StructureError struct {
	Message string
	Cause   error
}

func (e *StructureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid skills structure: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid skills structure: %s", e.Message)
}

func (e *StructureError) Unwrap() error {
	return e.Cause
}

// ValidateStructure checks that skills is a list of categories that each carry an items list.
func ValidateStructure(skills []types.SkillCategory) error {
	if skills == nil {
		return &StructureError{Message: "skills must be a list of categories"}
	}
	for i, category := range skills {
		if category.Items == nil {
			return &StructureError{Message: fmt.Sprintf("category %d (%q) has no items list", i, category.Category)}
		}
	}
	return nil
}

// ParseStructure decodes a raw skills document.
func ParseStructure(raw []byte) ([]types.SkillCategory, error) {
	var skills []types.SkillCategory
	if err := json.Unmarshal(raw, &skills); err != nil {
		return nil, &StructureError{Message: "expected an array of {category, items}", Cause: err}
	}
	if err := ValidateStructure(skills); err != nil {
		return nil, err
	}
	return skills, nil
}

// Options carries the context shared by every slot of a run.
type Options struct {
	JobTitle string
	Industry string
	Observer enhance.StatusObserver
}

// Engine fills skill slots one at a time so every acceptance decision sees all earlier ones.
type Engine struct {
	enhancer enhance.TextEnhancer
}

// NewEngine creates an Engine.
func NewEngine(enhancer enhance.TextEnhancer) *Engine {
	return &Engine{enhancer: enhancer}
}

// Enhance returns a copy of skills with every slot holding a unique token longer than two
// characters. The input is never modified. A canceled context stops the run and returns
// the context error without a result.
func (e *Engine) Enhance(ctx context.Context, skills []types.SkillCategory, opts Options) ([]types.SkillCategory, error) {
	if err := ValidateStructure(skills); err != nil {
		return nil, err
	}

	out := types.CloneSkills(skills)
	set := NewSet(skills)
	total := types.SkillSlotCount(skills)
	slot := 0

	for c := range out {
		category := out[c].Category
		for i, original := range out[c].Items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			slot++

			candidate, err := e.generate(ctx, set, category, original, slot, opts)
			if err != nil {
				return nil, err
			}
			token := e.accept(set, candidate, original, slot, total)
			set.Add(token)
			out[c].Items[i] = token
		}
	}

	log.Printf("[skills] filled %d skill slots across %d categories", total, len(out))
	return out, nil
}

// generate asks the enhancer for one slot and applies the post-processing rules.
// It only returns an error when the context is done.
func (e *Engine) generate(ctx context.Context, set *Set, category, original string, slot int, opts Options) (string, error) {
	original = strings.TrimSpace(original)
	avoid := strings.Join(set.Values(), ", ")

	var source string
	if original == "" {
		source = prompts.MustRender(prompts.SkillNew, map[string]string{
			"Category": category,
			"Avoid":    avoid,
		})
	} else {
		source = prompts.MustRender(prompts.SkillExisting, map[string]string{
			"Skill":    original,
			"Category": category,
			"Avoid":    avoid,
		})
	}

	result, err := e.enhancer.EnhanceText(ctx, types.EnhancementRequest{
		SourceText:  source,
		SectionType: types.SectionSkills,
		JobTitle:    opts.JobTitle,
		Industry:    opts.Industry,
	}, opts.Observer)

	candidate := result.Text
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		observability.ObserveSkillFallback(fallbackGeneration)
		if original == "" {
			candidate = fmt.Sprintf("Skill%d", slot)
		} else {
			candidate = original
		}
		log.Printf("[skills] slot %d (%s) generation failed, using %q: %v", slot, category, candidate, err)
	}
	return PostProcess(candidate), nil
}

// accept returns candidate when it is long enough and unused, otherwise the next fallback token.
// A slot may keep its own original value unless an earlier slot already claimed it.
func (e *Engine) accept(set *Set, candidate, original string, slot, total int) string {
	if utf8.RuneCountInString(candidate) > minTokenLength {
		own := strings.EqualFold(candidate, strings.TrimSpace(original)) ||
			strings.EqualFold(candidate, PostProcess(original))
		if !set.Contains(candidate) || (own && !set.Committed(candidate)) {
			return candidate
		}
	}

	if word, ok := nextFallback(set); ok {
		observability.ObserveSkillFallback(fallbackVocabulary)
		return word
	}
	observability.ObserveSkillFallback(fallbackPlaceholder)
	return placeholder(set, "Enhanced", slot, total)
}

// PostProcess keeps the text before the first colon, takes its first token and drops non-letters.
func PostProcess(candidate string) string {
	if i := strings.Index(candidate, ":"); i >= 0 {
		candidate = candidate[:i]
	}
	fields := strings.Fields(candidate)
	if len(fields) == 0 {
		return ""
	}
	return enhance.LettersOnly(fields[0])
}
