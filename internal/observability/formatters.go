// Package observability provides metrics collectors and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintStatus outputs one status transition as a single line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStatus(status types.APIStatus) {
	icon := "·"
	switch status.Phase {
	case types.PhaseProcessing:
		icon = "…"
	case types.PhaseSuccess:
		icon = "✓"
	case types.PhaseError:
		icon = "✗"
	}
	line := fmt.Sprintf("%s [%s] %s", icon, status.ActiveEndpoint, status.Message)
	if status.IsSwitchingToFallback {
		line += " (switching to fallback)"
	}
	if status.UpstreamErrorDetail != "" {
		line += ": " + truncate(status.UpstreamErrorDetail, 80)
	}
	fmt.Fprintln(p.out, line)
}

// PrintProgress outputs a section progress line such as "[2/5] Enhancing Experience...".
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(completed, total int, message string) {
	fmt.Fprintf(p.out, "[%d/%d] %s\n", completed, total, message)
}

// PrintEnhancedText outputs the before and after of a single text enhancement.
func (p *Printer) PrintEnhancedText(section types.SectionType, original, enhanced string) {
	var sb strings.Builder
	if original != "" {
		sb.WriteString("Before:\n")
		writeWrapped(&sb, original)
		sb.WriteString("\n")
	}
	sb.WriteString("After:\n")
	writeWrapped(&sb, enhanced)

	p.printBox(fmt.Sprintf("ENHANCED %s", strings.ToUpper(section.Label())), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResumeSummary outputs the enhanced sections of a resume.
func (p *Printer) PrintResumeSummary(resume *types.Resume, sections []types.SectionType) {
	if resume == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Enhanced %d section(s)\n", len(sections)))

	for _, section := range sections {
		sb.WriteString("\n")
		sb.WriteString(section.Label() + ":\n")
		lines := sectionLines(resume, section)
		count := min(len(lines), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", lines[i]))
		}
		if len(lines) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(lines)-maxItemsToShow))
		}
	}

	p.printBox("ENHANCED RESUME", strings.TrimSuffix(sb.String(), "\n"))
}

func sectionLines(resume *types.Resume, section types.SectionType) []string {
	var lines []string
	switch section {
	case types.SectionSummary:
		if resume.Summary != "" {
			lines = append(lines, resume.Summary)
		}
	case types.SectionExperience:
		for _, e := range resume.Experience {
			lines = append(lines, e.Accomplishment)
		}
	case types.SectionHeadings:
		for _, e := range resume.Experience {
			lines = append(lines, e.Title)
		}
	case types.SectionAchievements:
		for _, a := range resume.Achievements {
			lines = append(lines, a.Description)
		}
	case types.SectionEducation:
		for _, e := range resume.Education {
			lines = append(lines, e.Degree)
		}
	case types.SectionProjects:
		for _, pr := range resume.Projects {
			lines = append(lines, pr.Description)
		}
	case types.SectionSkills:
		for _, c := range resume.Skills {
			lines = append(lines, fmt.Sprintf("%s: %s", c.Category, strings.Join(c.Items, ", ")))
		}
	}
	return lines
}

// writeWrapped word-wraps s to the box content width.
func writeWrapped(sb *strings.Builder, s string) {
	width := boxWidth - 6
	line := ""
	for _, word := range strings.Fields(s) {
		if line != "" && len([]rune(line))+1+len([]rune(word)) > width {
			sb.WriteString("  " + line + "\n")
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += word
	}
	if line != "" {
		sb.WriteString("  " + line + "\n")
	}
}
