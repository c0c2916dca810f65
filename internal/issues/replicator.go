package issues

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/ghfork/internal/forks"
)

const (
	// DefaultPacingDelay spaces issue creation to stay clear of secondary rate limits.
	DefaultPacingDelay = time.Second

	// DefaultProvenanceTemplate receives the source repository, issue number, and issue URL.
	DefaultProvenanceTemplate = "_Copied from %s#%d: %s_"

	provenanceSeparatorConstant             = "\n\n---\n\n"
	issueServiceMissingMessageConstant      = "issue service not configured"
	missingTitleReasonConstant              = "missing title"
	notIssueReferenceReasonTemplateConstant = "create response is not an issue reference: %q"
	logFieldSourceConstant                  = "source"
	logFieldForkConstant                    = "fork"
	logFieldIssueNumberConstant             = "issue_number"
	logFieldNewIssueNumberConstant          = "new_issue_number"
	logFieldLabelConstant                   = "label"
	logFieldReasonConstant                  = "reason"
	logFieldTotalConstant                   = "total"
	fetchFailedLogMessageConstant           = "Could not fetch source issues, skipping issue copy"
	noIssuesLogMessageConstant              = "No issues to copy"
	snapshotLogMessageConstant              = "Copying open issues"
	dryRunSnapshotLogMessageConstant        = "Dry run: issues that would be copied"
	issueCopiedLogMessageConstant           = "Issue copied"
	issueSkippedLogMessageConstant          = "Issue skipped"
	issueFailedLogMessageConstant           = "Issue copy failed"
	labelLookupFailedLogMessageConstant     = "Label lookup failed, label not recreated"
	labelCreateFailedLogMessageConstant     = "Label creation failed, continuing"
	labelMalformedLogMessageConstant        = "Label rejected as malformed"
	replicationInterruptedTemplateConstant  = "issue copy interrupted after %d of %d issues: %w"
)

// ErrIssueServiceNotConfigured indicates the Replicator was constructed without an IssueService.
var ErrIssueServiceNotConfigured = errors.New(issueServiceMissingMessageConstant)

// ReplicatorDependencies describes collaborators for issue replication.
type ReplicatorDependencies struct {
	Logger             *zap.Logger
	IssueService       IssueService
	Sleeper            forks.Sleeper
	PacingDelay        time.Duration
	ProvenanceTemplate string
}

// ReplicationRequest names the source repository and the fork that receives its issues.
type ReplicationRequest struct {
	Source forks.RepositoryRef
	Fork   forks.ForkResult
	DryRun bool
}

// Replicator copies open issues, with their labels, from a source repository into a fork.
type Replicator struct {
	logger             *zap.Logger
	issueService       IssueService
	sleeper            forks.Sleeper
	pacingDelay        time.Duration
	provenanceTemplate string
}

// NewReplicator constructs a Replicator.
func NewReplicator(dependencies ReplicatorDependencies) (*Replicator, error) {
	if dependencies.IssueService == nil {
		return nil, ErrIssueServiceNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sleeper := dependencies.Sleeper
	if sleeper == nil {
		sleeper = forks.TimerSleeper{}
	}

	pacingDelay := dependencies.PacingDelay
	if pacingDelay < 0 {
		pacingDelay = 0
	}

	provenanceTemplate := dependencies.ProvenanceTemplate
	if len(strings.TrimSpace(provenanceTemplate)) == 0 {
		provenanceTemplate = DefaultProvenanceTemplate
	}

	return &Replicator{
		logger:             logger,
		issueService:       dependencies.IssueService,
		sleeper:            sleeper,
		pacingDelay:        pacingDelay,
		provenanceTemplate: provenanceTemplate,
	}, nil
}

// BuildSnapshot keeps open issues that are not pull requests, ordered by ascending number.
func BuildSnapshot(listedIssues []SourceIssue) []SourceIssue {
	snapshot := make([]SourceIssue, 0, len(listedIssues))
	for _, listedIssue := range listedIssues {
		if listedIssue.IsOpenIssue() {
			snapshot = append(snapshot, listedIssue)
		}
	}
	sort.SliceStable(snapshot, func(leftIndex int, rightIndex int) bool {
		return snapshot[leftIndex].Number < snapshot[rightIndex].Number
	})
	return snapshot
}

// ComposeBody prefixes the original body with a provenance line.
func (replicator *Replicator) ComposeBody(source forks.RepositoryRef, issue SourceIssue) string {
	provenance := fmt.Sprintf(replicator.provenanceTemplate, source.String(), issue.Number, issue.HTMLURL)
	return provenance + provenanceSeparatorConstant + issue.Body
}

// Replicate copies every open issue of the source into the fork. Individual failures are
// recorded in the Summary; only cancellation is returned as an error, alongside the partial Summary.
func (replicator *Replicator) Replicate(executionContext context.Context, request ReplicationRequest) (Summary, error) {
	forkReference := request.Fork.Repository()
	summary := Summary{DryRun: request.DryRun}

	listedIssues, listError := replicator.issueService.ListIssues(executionContext, request.Source)
	if listError != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}
		replicator.logger.Warn(fetchFailedLogMessageConstant, zap.String(logFieldSourceConstant, request.Source.String()), zap.Error(listError))
		summary.FetchFailed = true
		summary.FetchError = listError.Error()
		return summary, nil
	}

	snapshot := BuildSnapshot(listedIssues)
	summary.Total = len(snapshot)
	if len(snapshot) == 0 {
		replicator.logger.Info(noIssuesLogMessageConstant, zap.String(logFieldSourceConstant, request.Source.String()))
		return summary, nil
	}

	if request.DryRun {
		return replicator.planReplication(request, snapshot, summary), nil
	}

	replicator.logger.Info(snapshotLogMessageConstant,
		zap.String(logFieldSourceConstant, request.Source.String()),
		zap.String(logFieldForkConstant, forkReference.String()),
		zap.Int(logFieldTotalConstant, len(snapshot)))

	for _, sourceIssue := range snapshot {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, fmt.Errorf(replicationInterruptedTemplateConstant, summary.Processed(), summary.Total, contextError)
		}

		outcome, labelFailures := replicator.replicateIssue(executionContext, request.Source, forkReference, sourceIssue)
		summary = summary.Record(outcome, issueTitle(sourceIssue))
		summary.LabelFailures += labelFailures

		if sleepError := replicator.sleeper.Sleep(executionContext, replicator.pacingDelay); sleepError != nil {
			return summary, fmt.Errorf(replicationInterruptedTemplateConstant, summary.Processed(), summary.Total, sleepError)
		}
	}

	return summary, nil
}

func (replicator *Replicator) planReplication(request ReplicationRequest, snapshot []SourceIssue, summary Summary) Summary {
	for _, sourceIssue := range snapshot {
		if !sourceIssue.HasTitle() {
			summary = summary.Record(Outcome{Kind: OutcomeSkipped, IssueNumber: sourceIssue.Number, Reason: missingTitleReasonConstant}, "")
			continue
		}
		replicator.logger.Info(dryRunSnapshotLogMessageConstant,
			zap.String(logFieldSourceConstant, request.Source.String()),
			zap.Int(logFieldIssueNumberConstant, sourceIssue.Number))
	}
	return summary
}

func (replicator *Replicator) replicateIssue(executionContext context.Context, source forks.RepositoryRef, fork forks.RepositoryRef, sourceIssue SourceIssue) (Outcome, int) {
	if !sourceIssue.HasTitle() {
		replicator.logger.Warn(issueSkippedLogMessageConstant, zap.Int(logFieldIssueNumberConstant, sourceIssue.Number), zap.String(logFieldReasonConstant, missingTitleReasonConstant))
		return Outcome{Kind: OutcomeSkipped, IssueNumber: sourceIssue.Number, Reason: missingTitleReasonConstant}, 0
	}

	labelFailures := replicator.replicateLabels(executionContext, source, fork, sourceIssue.Labels)

	createdIssue, createError := replicator.issueService.CreateIssue(executionContext, fork, NewIssue{
		Title:  *sourceIssue.Title,
		Body:   replicator.ComposeBody(source, sourceIssue),
		Labels: sourceIssue.LabelNames(),
	})

	var failureReason string
	switch {
	case createError != nil:
		failureReason = createError.Error()
	case !createdIssue.IsIssueReference():
		failureReason = fmt.Sprintf(notIssueReferenceReasonTemplateConstant, createdIssue.HTMLURL)
	}
	if len(failureReason) > 0 {
		replicator.logger.Warn(issueFailedLogMessageConstant, zap.Int(logFieldIssueNumberConstant, sourceIssue.Number), zap.String(logFieldReasonConstant, failureReason))
		return Outcome{Kind: OutcomeFailed, IssueNumber: sourceIssue.Number, Reason: failureReason}, labelFailures
	}

	newNumber := createdIssue.DisplayNumber()
	replicator.logger.Info(issueCopiedLogMessageConstant, zap.Int(logFieldIssueNumberConstant, sourceIssue.Number), zap.String(logFieldNewIssueNumberConstant, newNumber))
	return Outcome{Kind: OutcomeCreated, IssueNumber: sourceIssue.Number, NewNumber: newNumber}, labelFailures
}

// replicateLabels recreates each source label on the fork. Lookup and creation errors are
// discarded here; only malformed label data is counted.
func (replicator *Replicator) replicateLabels(executionContext context.Context, source forks.RepositoryRef, fork forks.RepositoryRef, labels []Label) int {
	malformedLabels := 0
	for _, label := range labels {
		sourceLabel, lookupError := replicator.issueService.GetLabel(executionContext, source, label.Name)
		if lookupError != nil {
			malformedLabels += replicator.discardLabelError(labelLookupFailedLogMessageConstant, label.Name, lookupError)
			continue
		}

		if createError := replicator.issueService.CreateLabel(executionContext, fork, sourceLabel); createError != nil {
			malformedLabels += replicator.discardLabelError(labelCreateFailedLogMessageConstant, label.Name, createError)
		}
	}
	return malformedLabels
}

func (replicator *Replicator) discardLabelError(message string, labelName string, labelError error) int {
	if errors.Is(labelError, ErrMalformedLabel) {
		replicator.logger.Debug(labelMalformedLogMessageConstant, zap.String(logFieldLabelConstant, labelName), zap.Error(labelError))
		return 1
	}
	replicator.logger.Debug(message, zap.String(logFieldLabelConstant, labelName), zap.Error(labelError))
	return 0
}

func issueTitle(issue SourceIssue) string {
	if issue.Title == nil {
		return ""
	}
	return *issue.Title
}
