package issues

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/temirov/ghfork/internal/forks"
)

const (
	issueStateOpenConstant                 = "open"
	httpsSchemeConstant                    = "https"
	issuesPathSegmentConstant              = "issues"
	issueReferencePathSegmentCountConstant = 4
	unknownIssueNumberConstant             = "unknown"
	malformedLabelMessageConstant          = "malformed label"
)

// ErrMalformedLabel marks label data rejected before it reached the remote service.
var ErrMalformedLabel = errors.New(malformedLabelMessageConstant)

var issueNumberPattern = regexp.MustCompile(`/issues/([0-9]+)`)

// Label is a repository label.
type Label struct {
	Name        string
	Color       string
	Description string
}

// SourceIssue is an issue as listed on the source repository. Title is nil when the
// remote response carried no title.
type SourceIssue struct {
	Number        int
	Title         *string
	Body          string
	HTMLURL       string
	State         string
	IsPullRequest bool
	Labels        []Label
}

// IsOpenIssue reports whether the item is an open issue rather than a pull request.
func (issue SourceIssue) IsOpenIssue() bool {
	return !issue.IsPullRequest && issue.State == issueStateOpenConstant
}

// HasTitle reports whether a usable title was extracted.
func (issue SourceIssue) HasTitle() bool {
	return issue.Title != nil && len(strings.TrimSpace(*issue.Title)) > 0
}

// LabelNames returns the non-empty label names in source order.
func (issue SourceIssue) LabelNames() []string {
	names := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		if len(label.Name) == 0 {
			continue
		}
		names = append(names, label.Name)
	}
	return names
}

// NewIssue is the payload for an issue created on the fork.
type NewIssue struct {
	Title  string
	Body   string
	Labels []string
}

// CreatedIssue is the remote reference returned for a newly created issue.
type CreatedIssue struct {
	Number  int
	HTMLURL string
}

// IsIssueReference reports whether HTMLURL is an https URL of the form /<owner>/<name>/issues/<number>.
func (created CreatedIssue) IsIssueReference() bool {
	parsedURL, parseError := url.Parse(strings.TrimSpace(created.HTMLURL))
	if parseError != nil || parsedURL.Scheme != httpsSchemeConstant || len(parsedURL.Host) == 0 {
		return false
	}

	segments := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(segments) != issueReferencePathSegmentCountConstant {
		return false
	}
	if len(segments[0]) == 0 || len(segments[1]) == 0 || segments[2] != issuesPathSegmentConstant {
		return false
	}

	issueNumber, conversionError := strconv.Atoi(segments[3])
	return conversionError == nil && issueNumber > 0
}

// DisplayNumber returns the created issue number, extracting it from HTMLURL when the
// response carried none, or "unknown".
func (created CreatedIssue) DisplayNumber() string {
	if created.Number > 0 {
		return strconv.Itoa(created.Number)
	}
	if match := issueNumberPattern.FindStringSubmatch(created.HTMLURL); len(match) == 2 {
		return match[1]
	}
	return unknownIssueNumberConstant
}

// IssueService is the remote capability surface required to replicate issues.
type IssueService interface {
	ListIssues(executionContext context.Context, repository forks.RepositoryRef) ([]SourceIssue, error)
	GetLabel(executionContext context.Context, repository forks.RepositoryRef, name string) (Label, error)
	CreateLabel(executionContext context.Context, repository forks.RepositoryRef, label Label) error
	CreateIssue(executionContext context.Context, repository forks.RepositoryRef, issue NewIssue) (CreatedIssue, error)
}
