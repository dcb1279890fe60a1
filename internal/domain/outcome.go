package domain

// Outcome accumulates the result of one validation check. Valid starts
// true and flips to false on the first issue; it never flips back.
type Outcome struct {
	Valid    bool           `json:"valid" yaml:"valid"`
	Issues   []string       `json:"issues" yaml:"issues"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// NewOutcome returns a valid outcome with no issues.
func NewOutcome() *Outcome {
	return &Outcome{
		Valid:    true,
		Issues:   []string{},
		Metadata: map[string]any{},
	}
}

// AddIssue appends an issue in discovery order and marks the outcome invalid.
func (o *Outcome) AddIssue(issue string) {
	o.Issues = append(o.Issues, issue)
	o.Valid = false
}
