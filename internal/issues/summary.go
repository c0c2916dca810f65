package issues

// OutcomeKind classifies the result of replicating one issue.
type OutcomeKind string

// Replication outcomes.
const (
	OutcomeCreated OutcomeKind = OutcomeKind("created")
	OutcomeSkipped OutcomeKind = OutcomeKind("skipped")
	OutcomeFailed  OutcomeKind = OutcomeKind("failed")
)

// Outcome is the result of replicating a single source issue.
type Outcome struct {
	Kind        OutcomeKind
	IssueNumber int
	NewNumber   string
	Reason      string
}

// FailureDetail retains why an issue could not be copied.
type FailureDetail struct {
	IssueNumber int
	Title       string
	Reason      string
}

// Summary accumulates replication results. Copied + Failed + Skipped equals Total once
// every snapshot item was processed.
type Summary struct {
	Total         int
	Copied        int
	Failed        int
	Skipped       int
	LabelFailures int
	FetchFailed   bool
	FetchError    string
	DryRun        bool
	Failures      []FailureDetail
}

// Record returns a copy of the summary with the outcome counted.
func (summary Summary) Record(outcome Outcome, title string) Summary {
	switch outcome.Kind {
	case OutcomeCreated:
		summary.Copied++
	case OutcomeSkipped:
		summary.Skipped++
	case OutcomeFailed:
		summary.Failed++
		summary.Failures = append(append([]FailureDetail(nil), summary.Failures...), FailureDetail{
			IssueNumber: outcome.IssueNumber,
			Title:       title,
			Reason:      outcome.Reason,
		})
	}
	return summary
}

// Processed returns how many snapshot items have an outcome.
func (summary Summary) Processed() int {
	return summary.Copied + summary.Failed + summary.Skipped
}
