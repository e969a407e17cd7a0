// Package types provides type definitions for structured data used throughout the resume builder.
package types

// Resume is the editable resume document. The enhancement pipeline reads one text field per element
// and writes one text field (or one skill token) back.
type Resume struct {
	Name         string          `json:"name,omitempty"`
	Title        string          `json:"title,omitempty"`
	Contact      Contact         `json:"contact,omitempty"`
	Summary      string          `json:"summary"`
	Experience   []Experience    `json:"experience"`
	Achievements []Achievement   `json:"achievements"`
	Education    []Education     `json:"education"`
	Projects     []Project       `json:"projects"`
	Skills       []SkillCategory `json:"skills"`
	Settings     Settings        `json:"settings,omitempty"`
}

// Contact holds the header contact lines of a resume.
type Contact struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Settings holds presentation toggles chosen in the editor.
type Settings struct {
	Template       string          `json:"template,omitempty"`
	ShowBranding   bool            `json:"showBranding"`
	HiddenSections []string        `json:"hiddenSections,omitempty"`
	SectionOrder   []string        `json:"sectionOrder,omitempty"`
	Extra          map[string]bool `json:"extra,omitempty"`
}

// Experience is one work history entry.
type Experience struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Dates          string `json:"dates,omitempty"`
	Location       string `json:"location,omitempty"`
	Accomplishment string `json:"accomplishment"`
}

// Achievement is one achievement entry.
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Education is one education entry.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution,omitempty"`
	Dates       string `json:"dates,omitempty"`
	Description string `json:"description,omitempty"`
}

// Project is one project entry.
type Project struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description"`
}

// SkillCategory groups an ordered list of skill slots under a heading.
// Items may contain empty strings for slots the user has not filled yet.
type SkillCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Clone returns a deep copy of the resume.
func (r *Resume) Clone() *Resume {
	if r == nil {
		return nil
	}
	out := *r
	out.Experience = append([]Experience(nil), r.Experience...)
	out.Achievements = append([]Achievement(nil), r.Achievements...)
	out.Education = append([]Education(nil), r.Education...)
	out.Projects = append([]Project(nil), r.Projects...)
	out.Skills = CloneSkills(r.Skills)
	out.Settings.HiddenSections = append([]string(nil), r.Settings.HiddenSections...)
	out.Settings.SectionOrder = append([]string(nil), r.Settings.SectionOrder...)
	if r.Settings.Extra != nil {
		out.Settings.Extra = make(map[string]bool, len(r.Settings.Extra))
		for k, v := range r.Settings.Extra {
			out.Settings.Extra[k] = v
		}
	}
	return &out
}

// CloneSkills returns a deep copy of a skills structure.
func CloneSkills(skills []SkillCategory) []SkillCategory {
	if skills == nil {
		return nil
	}
	out := make([]SkillCategory, len(skills))
	for i, c := range skills {
		out[i] = SkillCategory{Category: c.Category}
		if c.Items != nil {
			out[i].Items = append([]string{}, c.Items...)
		}
	}
	return out
}

// SkillSlotCount returns the total number of skill slots across all categories.
func SkillSlotCount(skills []SkillCategory) int {
	n := 0
	for _, c := range skills {
		n += len(c.Items)
	}
	return n
}
