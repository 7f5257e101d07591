package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expectation, assertion and property holds.
	Pass bool `json:"pass"`

	// RunID identifies the stored decomposition run.
	RunID string `json:"run_id"`

	// Leaves holds the leaf attribute sets in left-then-right order.
	Leaves [][]string `json:"leaves"`

	// Tree is the rendered decomposition tree, used for golden comparison.
	Tree string `json:"tree"`

	// Errors contains failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Leaves: [][]string{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
