package types

import (
	"fmt"
	"strings"
)

// SectionType names a logical resume section the enhancement pipeline operates on.
type SectionType string

// Section types accepted by the enhancement pipeline.
const (
	SectionSummary      SectionType = "summary"
	SectionExperience   SectionType = "experience"
	SectionHeadings     SectionType = "headings"
	SectionSkills       SectionType = "skills"
	SectionAchievements SectionType = "achievements"
	SectionEducation    SectionType = "education"
	SectionProjects     SectionType = "projects"
	SectionFull         SectionType = "full"
)

// AllSections lists every accepted section type.
var AllSections = []SectionType{
	SectionSummary,
	SectionExperience,
	SectionHeadings,
	SectionSkills,
	SectionAchievements,
	SectionEducation,
	SectionProjects,
	SectionFull,
}

var sectionLabels = map[SectionType]string{
	SectionSummary:      "Professional Summary",
	SectionExperience:   "Work Experience",
	SectionHeadings:     "Job Titles",
	SectionSkills:       "Skills",
	SectionAchievements: "Achievements",
	SectionEducation:    "Education",
	SectionProjects:     "Projects",
	SectionFull:         "Full Resume",
}

// Label returns the human-readable section name shown in progress and error messages.
func (s SectionType) Label() string {
	if label, ok := sectionLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is a known section type.
func (s SectionType) Valid() bool {
	_, ok := sectionLabels[s]
	return ok
}

// SectionNames joins AllSections for help and error text.
func SectionNames() string {
	names := make([]string, len(AllSections))
	for i, s := range AllSections {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// ParseSectionType normalizes and validates a section name.
func ParseSectionType(raw string) (SectionType, error) {
	s := SectionType(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown section type %q (want one of %s)", raw, SectionNames())
	}
	return s, nil
}

// EnhancementRequest is one unit of text to enhance.
// SourceText and JobTitle must not both be empty.
type EnhancementRequest struct {
	SourceText  string      `json:"text"`
	SectionType SectionType `json:"sectionType" validate:"required"`
	JobTitle    string      `json:"jobTitle,omitempty"`
	Industry    string      `json:"industry,omitempty"`
}

// HasInput reports whether the request carries enough context to build a prompt.
func (r EnhancementRequest) HasInput() bool {
	return strings.TrimSpace(r.SourceText) != "" || strings.TrimSpace(r.JobTitle) != ""
}
