package task

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FileAnalysisResult is the outcome for one file: an analysis or an error,
// never both. Build it with FileSucceeded or FileFailed.
type FileAnalysisResult struct {
	filename string
	analysis json.RawMessage
	errMsg   string
	failed   bool
}

// FileSucceeded records a parsed analysis for filename
func FileSucceeded(filename string, analysis json.RawMessage) FileAnalysisResult {
	if len(analysis) == 0 {
		analysis = json.RawMessage("null")
	}
	return FileAnalysisResult{filename: filename, analysis: analysis}
}

// FileFailed records why filename could not be analyzed
func FileFailed(filename string, err error) FileAnalysisResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return FileAnalysisResult{filename: filename, errMsg: msg, failed: true}
}

// Filename returns the file path
func (f FileAnalysisResult) Filename() string { return f.filename }

// Succeeded reports whether the analysis variant is set
func (f FileAnalysisResult) Succeeded() bool { return !f.failed }

// Analysis returns the parsed analysis and true for a successful file
func (f FileAnalysisResult) Analysis() (json.RawMessage, bool) {
	if f.failed {
		return nil, false
	}
	return f.analysis, true
}

// Err returns the error message and true for a failed file
func (f FileAnalysisResult) Err() (string, bool) {
	if !f.failed {
		return "", false
	}
	return f.errMsg, true
}

type fileAnalysisJSON struct {
	Filename string          `json:"filename"`
	Analysis json.RawMessage `json:"analysis,omitempty"`
	Error    *string         `json:"error,omitempty"`
}

// MarshalJSON emits {filename, analysis} or {filename, error}
func (f FileAnalysisResult) MarshalJSON() ([]byte, error) {
	out := fileAnalysisJSON{Filename: f.filename}
	if f.failed {
		msg := f.errMsg
		out.Error = &msg
	} else {
		out.Analysis = f.analysis
		if len(out.Analysis) == 0 {
			out.Analysis = json.RawMessage("null")
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts exactly one of analysis or error
func (f *FileAnalysisResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var name string
	if v, ok := raw["filename"]; ok {
		if err := json.Unmarshal(v, &name); err != nil {
			return fmt.Errorf("filename: %w", err)
		}
	}

	analysis, hasAnalysis := raw["analysis"]
	errRaw, hasError := raw["error"]
	switch {
	case hasAnalysis && hasError:
		return fmt.Errorf("file result %q has both analysis and error", name)
	case hasError:
		var msg string
		if err := json.Unmarshal(errRaw, &msg); err != nil {
			return fmt.Errorf("error: %w", err)
		}
		*f = FileAnalysisResult{filename: name, errMsg: msg, failed: true}
	case hasAnalysis:
		*f = FileAnalysisResult{filename: name, analysis: append(json.RawMessage(nil), bytes.TrimSpace(analysis)...)}
	default:
		return fmt.Errorf("file result %q has neither analysis nor error", name)
	}
	return nil
}

// CodeAnalysisResult is the result of a code_analysis task.
// Files keep the order of the provider's file listing.
type CodeAnalysisResult struct {
	RepoURL  string               `json:"repo_url"`
	PRNumber int                  `json:"pr_number"`
	Files    []FileAnalysisResult `json:"files"`
}

// Failed counts files that carry an error
func (r *CodeAnalysisResult) Failed() int {
	n := 0
	for _, f := range r.Files {
		if !f.Succeeded() {
			n++
		}
	}
	return n
}

// PRMetadataResult is the result of a pr_metadata task
type PRMetadataResult struct {
	Repo     string `json:"repo"`
	PRNumber int    `json:"pr_number"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Status   string `json:"status"`
	// Mergeable is null while the host has not computed it
	Mergeable *bool `json:"mergeable"`
}
