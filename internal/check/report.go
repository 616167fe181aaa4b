package check

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Tushar-r12345/ai-code-review-analysis/consts"
)

var titleCaser = cases.Title(language.English)

// providerDisplayName returns a readable name for a provider type
func providerDisplayName(providerType string) string {
	switch providerType {
	case "github":
		return "GitHub"
	case "gitlab":
		return "GitLab"
	case "":
		return "provider"
	default:
		return titleCaser.String(providerType)
	}
}

// PrintHeader prints the check banner
func PrintHeader(w io.Writer, path string) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	fmt.Fprintln(w, titleStyle.Render(titleCaser.String(consts.ServiceName+" configuration check")))
	if path != "" {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		fmt.Fprintln(w, dim.Render(path))
	}
}

// PrintResult prints the check result in a formatted way
func PrintResult(w io.Writer, result *Result) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	if len(result.Errors) > 0 {
		fmt.Fprintln(w)
		red.Fprintln(w, "[ERROR] Configuration check failed")
		fmt.Fprintln(w)
		for _, err := range result.Errors {
			red.Fprintf(w, "  ✗ %s\n", err)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
		yellow.Fprintln(w, "[WARNING] Configuration warnings:")
		fmt.Fprintln(w)
		for _, warn := range result.Warnings {
			yellow.Fprintf(w, "  ⚠ %s\n", warn)
		}
	}

	if len(result.Suggestions) > 0 {
		cyan.Fprintln(w, "\nTo fix these issues:")
		for _, suggestion := range result.Suggestions {
			fmt.Fprintf(w, "  → %s\n", suggestion)
		}
	}

	fmt.Fprintln(w)
	printSummary(w, result)
}

// printSummary prints the one-line final status
func printSummary(w io.Writer, result *Result) {
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	fmt.Fprintln(w, sep.Render(strings.Repeat("─", 50)))

	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	switch {
	case !result.Success:
		red.Fprint(w, "✗ Check completed")
	case len(result.Warnings) > 0:
		yellow.Fprint(w, "⚠ Check completed")
	default:
		green.Fprint(w, "✓ Check completed")
	}

	var details []string
	if n := len(result.Errors); n > 0 {
		details = append(details, fmt.Sprintf("%d error(s)", n))
	}
	if n := len(result.Warnings); n > 0 {
		details = append(details, fmt.Sprintf("%d warning(s)", n))
	}

	if len(details) > 0 {
		fmt.Fprintf(w, " (%s)\n", strings.Join(details, ", "))
	} else {
		fmt.Fprintln(w, " - All checks passed")
	}
}
