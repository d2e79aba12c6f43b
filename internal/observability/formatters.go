// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/job-pilot/internal/lifecycle"
	"github.com/jonathan/job-pilot/internal/resumes"
	"github.com/jonathan/job-pilot/internal/types"
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
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfile outputs a human-readable summary of the career profile.
func (p *Printer) PrintProfile(profile *types.Profile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:       %s\n", profile.PersonalDetails.Name))
	sb.WriteString(fmt.Sprintf("Email:      %s\n", profile.PersonalDetails.Email))
	sb.WriteString(fmt.Sprintf("Jobs:       %d\n", len(profile.Employment)))
	sb.WriteString(fmt.Sprintf("Projects:   %d\n", len(profile.Projects)))
	sb.WriteString(fmt.Sprintf("Education:  %d\n", len(profile.Education)))
	sb.WriteString(fmt.Sprintf("Skills:     %d\n", len(profile.Skills)))

	if len(profile.Skills) > 0 {
		sb.WriteString("\nTop skills:\n")
		for i, skill := range profile.Skills {
			if i >= maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Skills)-maxItemsToShow))
				break
			}
			category := skill.Category
			if category == "" {
				category = "uncategorized"
			}
			sb.WriteString(fmt.Sprintf("  %s (%s)\n", skill.Name, category))
		}
	}

	p.printBox("Profile", strings.TrimRight(sb.String(), "\n"))
}

// PrintApplication outputs a human-readable summary of one application.
func (p *Printer) PrintApplication(app *types.SavedApplication) {
	if app == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", app.CompanyName))
	sb.WriteString(fmt.Sprintf("Role:     %s\n", app.JobTitle))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", app.Status))
	if app.SubmissionDate != nil {
		sb.WriteString(fmt.Sprintf("Submitted: %s\n", app.SubmissionDate.Format("2006-01-02")))
	}
	if starred := resumes.Starred(app); starred != nil {
		sb.WriteString(fmt.Sprintf("Resume:   %s (starred of %d)\n", starred.Name, len(app.Resumes)))
	} else if len(app.Resumes) > 0 {
		sb.WriteString(fmt.Sprintf("Resumes:  %d (none starred)\n", len(app.Resumes)))
	}

	dates := lifecycle.ImportantDates(app)
	if len(dates) > 0 {
		sb.WriteString("\nUpcoming dates:\n")
		for i, date := range dates {
			if i >= maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(dates)-maxItemsToShow))
				break
			}
			sb.WriteString(fmt.Sprintf("  %s  %s\n", date.Date.Format("2006-01-02"), date.Description))
		}
	}

	p.printBox(fmt.Sprintf("Application %s", shortID(app.ID.String())), strings.TrimRight(sb.String(), "\n"))
}

// PrintApplicationList outputs a compact one-line-per-application table.
func (p *Printer) PrintApplicationList(apps []types.SavedApplication) {
	if len(apps) == 0 {
		fmt.Fprintln(p.out, "No applications saved.")
		return
	}

	var sb strings.Builder
	for _, app := range apps {
		sb.WriteString(fmt.Sprintf("%-10s %-12s %s @ %s\n",
			shortID(app.ID.String()), app.Status, app.JobTitle, app.CompanyName))
	}
	p.printBox(fmt.Sprintf("Applications (%d)", len(apps)), strings.TrimRight(sb.String(), "\n"))
}

// shortID trims a UUID to its first segment for display.
func shortID(id string) string {
	if idx := strings.Index(id, "-"); idx > 0 {
		return id[:idx]
	}
	return id
}
