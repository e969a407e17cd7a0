package pipeline

import (
	"github.com/jonathan/resume-builder/internal/types"
)

// FullSequence is the fixed order of sections enhanced by a full-resume run.
var FullSequence = []types.SectionType{
	types.SectionSummary,
	types.SectionExperience,
	types.SectionAchievements,
	types.SectionSkills,
}

// listSection describes a repeated resume section: how many elements it has and which
// text field of each element is read and replaced.
type listSection struct {
	count func(r *types.Resume) int
	read  func(r *types.Resume, i int) string
	write func(r *types.Resume, i int, text string)
	// context returns the job title used for element i when the run has none.
	context func(r *types.Resume, i int) string
	// skipEmpty leaves elements with an empty field untouched.
	skipEmpty bool
}

// listRegistry holds every section enhanced element by element.
var listRegistry = map[types.SectionType]listSection{
	types.SectionExperience: {
		count:   func(r *types.Resume) int { return len(r.Experience) },
		read:    func(r *types.Resume, i int) string { return r.Experience[i].Accomplishment },
		write:   func(r *types.Resume, i int, text string) { r.Experience[i].Accomplishment = text },
		context: func(r *types.Resume, i int) string { return r.Experience[i].Title },
	},
	types.SectionHeadings: {
		count:     func(r *types.Resume) int { return len(r.Experience) },
		read:      func(r *types.Resume, i int) string { return r.Experience[i].Title },
		write:     func(r *types.Resume, i int, text string) { r.Experience[i].Title = text },
		skipEmpty: true,
	},
	types.SectionAchievements: {
		count: func(r *types.Resume) int { return len(r.Achievements) },
		read:  func(r *types.Resume, i int) string { return r.Achievements[i].Description },
		write: func(r *types.Resume, i int, text string) { r.Achievements[i].Description = text },
	},
	types.SectionEducation: {
		count:     func(r *types.Resume) int { return len(r.Education) },
		read:      func(r *types.Resume, i int) string { return r.Education[i].Degree },
		write:     func(r *types.Resume, i int, text string) { r.Education[i].Degree = text },
		skipEmpty: true,
	},
	types.SectionProjects: {
		count:     func(r *types.Resume) int { return len(r.Projects) },
		read:      func(r *types.Resume, i int) string { return r.Projects[i].Description },
		write:     func(r *types.Resume, i int, text string) { r.Projects[i].Description = text },
		skipEmpty: true,
	},
}
