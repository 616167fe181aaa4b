package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Renderer renders prompt specifications into prompt text
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a new prompt renderer
func NewRenderer() *Renderer {
	r := &Renderer{}
	r.initTemplates()
	return r
}

// initTemplates initializes the prompt templates
func (r *Renderer) initTemplates() {
	funcMap := template.FuncMap{
		"indent":   indent,
		"numbered": numbered,
		"fence":    fence,
	}

	r.tmpl = template.New("prompt").Funcs(funcMap)

	template.Must(r.tmpl.New("main").Parse(mainTemplate))
	template.Must(r.tmpl.New("header").Parse(headerTemplate))
	template.Must(r.tmpl.New("input").Parse(inputTemplate))
	template.Must(r.tmpl.New("output").Parse(outputTemplate))
}

// Render renders a Spec into prompt text
func (r *Renderer) Render(spec *Spec) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "main", spec); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

func indent(spaces int, s string) string {
	pad := strings.Repeat(" ", spaces)
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}

// numbered formats items as a numbered list (1. 2. 3. etc.)
func numbered(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
	}
	return sb.String()
}

// fence returns a backtick fence longer than any backtick run in content,
// so code containing ``` cannot close the block early.
func fence(content string) string {
	longest, run := 0, 0
	for _, c := range content {
		if c == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}

const mainTemplate = `{{template "header" .}}
{{template "input" .}}
{{template "output" .}}`

const headerTemplate = `You are a code analysis AI agent powered by the Groq platform.
Your task is to analyze the provided code snippet using the model: {{.Model}}.

### Instructions:
Analyze the code for the following:
{{numbered .Areas}}`

const inputTemplate = `### Input Code:
{{- if .Filename}}
File: {{.Filename}}
{{- end}}
{{$f := fence .Content}}{{$f}}
{{.Content}}
{{$f}}
`

const outputTemplate = `### Expected Output:
You will provide the analysis in JSON format. The JSON should include:
- A list of **issues** for each file, specifying:
{{range .IssueFields}}{{indent 2 (printf "- %s" .)}}
{{end}}- A **summary** with:
{{range .SummaryFields}}{{indent 2 (printf "- %s" .)}}
{{end}}
`
