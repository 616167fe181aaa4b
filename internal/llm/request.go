package llm

// Request represents a single analyzer call
type Request struct {
	// Prompt is the full prompt text
	Prompt string

	// Model overrides the client's default model
	Model string

	// Metadata carries log context such as task_id and filename
	Metadata map[string]string
}

// GetMetadata returns a metadata value or "" when unset
func (r *Request) GetMetadata(key string) string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}

// Response represents an analyzer reply
type Response struct {
	// Content is the free text returned by the model
	Content string

	// Model is the model that produced the reply
	Model string

	// Usage is token accounting, when the backend reports it
	Usage *Usage
}

// Usage contains token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
