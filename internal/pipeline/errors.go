package pipeline

import "fmt"

// AnalysisError indicates the analysis service gave no usable response
// after the retry budget was exhausted.
type AnalysisError struct {
	Attempts int
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// ResponseFormatError indicates the model's reply carried no JSON
// payload that could be carved out and decoded.
type ResponseFormatError struct {
	Reason string
}

func (e *ResponseFormatError) Error() string {
	return "malformed analysis response: " + e.Reason
}
