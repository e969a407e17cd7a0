package skills

import "fmt"

// FallbackVocabulary is the ordered list of generic professional skills used when a
// generated token is rejected. Entries are taken in order and never reused.
var FallbackVocabulary = []string{
	"Analytics",
	"Strategy",
	"Innovation",
	"Research",
	"Optimization",
	"Coordination",
	"Implementation",
	"Documentation",
	"Testing",
	"Mentoring",
	"Planning",
	"Debugging",
	"Architecture",
	"Integration",
	"Validation",
	"Monitoring",
	"Consulting",
	"Training",
	"Auditing",
	"Compliance",
	"Reporting",
	"Visualization",
	"Modeling",
	"Prototyping",
	"Deployment",
	"Maintenance",
}

// nextFallback returns the first vocabulary entry not in s.
func nextFallback(s *Set) (string, bool) {
	for _, word := range FallbackVocabulary {
		if !s.Contains(word) {
			return word, true
		}
	}
	return "", false
}

// placeholder returns a "<prefix><slot>" token not in s.
func placeholder(s *Set, prefix string, slot, total int) string {
	step := total
	if step < 1 {
		step = 1
	}
	for n := slot; ; n += step {
		token := fmt.Sprintf("%s%d", prefix, n)
		if !s.Contains(token) {
			return token
		}
	}
}
