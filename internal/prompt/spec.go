// Package prompt builds the analyzer prompt for a single source file.
package prompt

// Spec is the structured form of a file analysis prompt
type Spec struct {
	// Model is named in the header so the reply can be attributed
	Model string

	// Filename is the path of the file under review
	Filename string

	// Content is the raw file content
	Content string

	// Areas are the review focus areas, rendered as a numbered list
	Areas []string

	// IssueFields describe each reported issue
	IssueFields []string

	// SummaryFields describe the summary object
	SummaryFields []string
}

// DefaultAreas are the review focus areas
var DefaultAreas = []string{
	"**Code style and formatting issues** (e.g., indentation, naming conventions)",
	"**Potential bugs or errors** (e.g., null pointer exceptions, incorrect logic)",
	"**Performance improvements** (e.g., optimize loops, reduce memory usage)",
	"**Best practices** (e.g., modularization, documentation, coding standards)",
}

// DefaultIssueFields list what each issue entry carries
var DefaultIssueFields = []string{
	"Type of issue (e.g., 'style', 'bug', 'performance')",
	"Line number",
	"Description of the issue",
	"Suggestions for improvement",
}

// DefaultSummaryFields list what the summary carries
var DefaultSummaryFields = []string{
	"Total files analyzed",
	"Total issues found",
	"Critical issues count (if applicable)",
}

// NewSpec returns a file analysis spec with the default review areas
func NewSpec(model, filename, content string) *Spec {
	return &Spec{
		Model:         model,
		Filename:      filename,
		Content:       content,
		Areas:         DefaultAreas,
		IssueFields:   DefaultIssueFields,
		SummaryFields: DefaultSummaryFields,
	}
}
