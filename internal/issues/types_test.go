package issues_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghfork/internal/issues"
)

func TestCreatedIssueIsIssueReference(testInstance *testing.T) {
	testCases := []struct {
		name     string
		htmlURL  string
		expected bool
	}{
		{name: "issue_url", htmlURL: "https://github.com/me/widgets/issues/12", expected: true},
		{name: "enterprise_issue_url", htmlURL: "https://git.example.com/me/widgets/issues/3", expected: true},
		{name: "error_message", htmlURL: "GraphQL: Could not resolve to a Repository", expected: false},
		{name: "empty", htmlURL: "", expected: false},
		{name: "http_scheme", htmlURL: "http://github.com/me/widgets/issues/12", expected: false},
		{name: "pull_request_url", htmlURL: "https://github.com/me/widgets/pull/12", expected: false},
		{name: "repository_url", htmlURL: "https://github.com/me/widgets", expected: false},
		{name: "non_numeric_number", htmlURL: "https://github.com/me/widgets/issues/new", expected: false},
		{name: "zero_number", htmlURL: "https://github.com/me/widgets/issues/0", expected: false},
		{name: "extra_segment", htmlURL: "https://github.com/me/widgets/issues/12/comments", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, issues.CreatedIssue{HTMLURL: testCase.htmlURL}.IsIssueReference())
		})
	}
}

func TestCreatedIssueDisplayNumber(testInstance *testing.T) {
	require.Equal(testInstance, "42", issues.CreatedIssue{Number: 42, HTMLURL: "https://github.com/me/widgets/issues/7"}.DisplayNumber())
	require.Equal(testInstance, "7", issues.CreatedIssue{HTMLURL: "https://github.com/me/widgets/issues/7"}.DisplayNumber())
	require.Equal(testInstance, "unknown", issues.CreatedIssue{HTMLURL: "https://github.com/me/widgets"}.DisplayNumber())
}

func TestSourceIssueLabelNamesPreservesOrderAndDuplicates(testInstance *testing.T) {
	sourceIssue := issues.SourceIssue{Labels: []issues.Label{{Name: "b"}, {Name: ""}, {Name: "a, c"}, {Name: "b"}}}

	require.Equal(testInstance, []string{"b", "a, c", "b"}, sourceIssue.LabelNames())
}

func TestSummaryRecord(testInstance *testing.T) {
	summary := issues.Summary{Total: 3}

	summary = summary.Record(issues.Outcome{Kind: issues.OutcomeCreated, IssueNumber: 1, NewNumber: "10"}, "One")
	failedSummary := summary.Record(issues.Outcome{Kind: issues.OutcomeFailed, IssueNumber: 2, Reason: "boom"}, "Two")
	finalSummary := failedSummary.Record(issues.Outcome{Kind: issues.OutcomeSkipped, IssueNumber: 3}, "")

	require.Empty(testInstance, summary.Failures)
	require.Equal(testInstance, 1, finalSummary.Copied)
	require.Equal(testInstance, 1, finalSummary.Failed)
	require.Equal(testInstance, 1, finalSummary.Skipped)
	require.Equal(testInstance, 3, finalSummary.Processed())
	require.Equal(testInstance, []issues.FailureDetail{{IssueNumber: 2, Title: "Two", Reason: "boom"}}, finalSummary.Failures)
}
