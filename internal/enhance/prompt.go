package enhance

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/types"
)

// contentPrefix marks a request to write a field from scratch.
const contentPrefix = "generate content for"

// skillIntents are the phrases that select the one-word skill prompt.
var skillIntents = []string{
	"generate a relevant skill",
	"generate a unique professional skill",
	"enhance this skill",
}

// IsSkillIntent reports whether req asks for a single skill word.
func IsSkillIntent(req types.EnhancementRequest) bool {
	if req.SectionType != types.SectionSkills {
		return false
	}
	text := strings.ToLower(req.SourceText)
	for _, intent := range skillIntents {
		if strings.Contains(text, intent) {
			return true
		}
	}
	return false
}

// ModeFor returns the generation mode for req.
func ModeFor(req types.EnhancementRequest) llm.GenerationMode {
	if IsSkillIntent(req) {
		return llm.ModeOneWord
	}
	return llm.ModeStandard
}

// ContentRequest builds the source text asking for a field to be written from scratch.
func ContentRequest(section types.SectionType) string {
	return fmt.Sprintf("Generate content for the %s section", strings.ToLower(section.Label()))
}

// BuildPrompt renders the upstream prompt for req. It is pure and performs no validation;
// callers reject requests without text and job title first.
func BuildPrompt(req types.EnhancementRequest) string {
	source := strings.TrimSpace(req.SourceText)
	if source == "" {
		source = ContentRequest(req.SectionType)
	}

	switch {
	case IsSkillIntent(req):
		return prompts.MustRender(prompts.SkillOneWord, map[string]string{
			"Request":        source,
			"JobTitleClause": clause(" for a %s role", req.JobTitle),
			"IndustryClause": clause(" in the %s industry", req.Industry),
		})
	case strings.HasPrefix(strings.ToLower(source), contentPrefix):
		return prompts.MustRender(prompts.ContentFromScratch, map[string]string{
			"Request":        strings.TrimRight(source, ". "),
			"JobTitleClause": clause(" for a %s position", req.JobTitle),
			"IndustryClause": clause(" in the %s industry", req.Industry),
		})
	default:
		return prompts.MustRender(prompts.StandardEnhancement, map[string]string{
			"Section":        strings.ToLower(req.SectionType.Label()),
			"Text":           source,
			"JobTitleClause": clause(", tailored for a %s position", req.JobTitle),
			"IndustryClause": clause(" in the %s industry", req.Industry),
		})
	}
}

func clause(format, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return fmt.Sprintf(format, value)
}
