package engine

// Request is a single completion call. System carries the instructions and
// conversation history; Prompt carries the user's message with any context.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	// JSON requests a bare JSON object as output.
	JSON bool
}

// PullProgress reports download progress for a model pull operation.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}
