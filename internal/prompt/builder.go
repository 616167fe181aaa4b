package prompt

var defaultRenderer = NewRenderer()

// BuildFileAnalysis renders the analyzer prompt for one file
func BuildFileAnalysis(model, filename, content string) (string, error) {
	return defaultRenderer.Render(NewSpec(model, filename, content))
}
