package harness

// StepTrace is what one scenario step produced.
type StepTrace struct {
	Step        int    `json:"step"`
	Query       string `json:"query"`          // Canonical REQL text, or the raw text if it did not parse
	Term        string `json:"term,omitempty"` // Driver term, empty if the query did not compile
	Status      string `json:"status"`         // "ok" or a failure kind
	Message     string `json:"message,omitempty"`
	Documents   []any  `json:"documents,omitempty"`
	Fingerprint string `json:"-"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one entry per step, in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Counts is the number of recorded executions per status.
	Counts map[string]int `json:"counts,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepTrace{},
		Errors: []string{},
		Counts: map[string]int{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
