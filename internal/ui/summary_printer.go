package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/temirov/ghfork/internal/forks"
	"github.com/temirov/ghfork/internal/issues"
)

const (
	forkCreatedTemplateConstant        = "Fork ready: %s"
	forkExistingTemplateConstant       = "Fork already exists: %s"
	forkDryRunTemplateConstant         = "Dry run for %s (no changes made)"
	renamedTemplateConstant            = "Renamed to %s"
	defaultBranchSetMessageConstant    = "Default branch updated"
	issuesEnabledMessageConstant       = "Issues enabled"
	plannedActionTemplateConstant      = "Would %s"
	warningTemplateConstant            = "Warning: %s"
	issuesHeaderTemplateConstant       = "Issues from %s"
	issuesFetchFailedTemplateConstant  = "Issues were not copied: %s"
	issuesNoneMessageConstant          = "No issues to copy"
	issuesNotRequestedMessageConstant  = "Issues were not copied (--copy-issues not set)"
	issuesCountsTemplateConstant       = "%d of %d copied, %d failed, %d skipped"
	issuesDryRunCountsTemplateConstant = "%d of %d would be copied, %d skipped"
	issuesInterruptedTemplateConstant  = "Stopped after %d of %d issues"
	issueFailureTemplateConstant       = "#%d %s: %s"
	labelFailuresTemplateConstant      = "%d labels could not be copied"
	indentationConstant                = "  "
	lineTerminatorConstant             = "\n"
	unknownFetchFailureMessageConstant = "fetch failed"
	untitledIssueLabelConstant         = "(untitled)"
	successColorConstant               = "10"
	warningColorConstant               = "11"
	failureColorConstant               = "9"
	headingColorConstant               = "14"
	secondaryColorConstant             = "245"
)

// SummaryPrinter renders the outcome of a fork run. Colors are dropped automatically when the
// writer is not a terminal.
type SummaryPrinter struct {
	writer  io.Writer
	heading lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

// NewSummaryPrinter detects the color profile of writer.
func NewSummaryPrinter(writer io.Writer) *SummaryPrinter {
	return newSummaryPrinter(writer, lipgloss.NewRenderer(writer))
}

// NewSummaryPrinterWithProfile forces a color profile, for example termenv.Ascii to disable styling.
func NewSummaryPrinterWithProfile(writer io.Writer, profile termenv.Profile) *SummaryPrinter {
	renderer := lipgloss.NewRenderer(writer)
	renderer.SetColorProfile(profile)
	return newSummaryPrinter(writer, renderer)
}

func newSummaryPrinter(writer io.Writer, renderer *lipgloss.Renderer) *SummaryPrinter {
	return &SummaryPrinter{
		writer:  writer,
		heading: renderer.NewStyle().Foreground(lipgloss.Color(headingColorConstant)).Bold(true),
		success: renderer.NewStyle().Foreground(lipgloss.Color(successColorConstant)).Bold(true),
		warning: renderer.NewStyle().Foreground(lipgloss.Color(warningColorConstant)),
		failure: renderer.NewStyle().Foreground(lipgloss.Color(failureColorConstant)).Bold(true),
		muted:   renderer.NewStyle().Foreground(lipgloss.Color(secondaryColorConstant)),
	}
}

// PrintFork reports fork setup, including every warning collected along the way.
func (printer *SummaryPrinter) PrintFork(result forks.ForkResult, dryRun bool) error {
	fork := result.Repository().String()

	var lines []string
	switch {
	case dryRun:
		lines = append(lines, printer.heading.Render(fmt.Sprintf(forkDryRunTemplateConstant, fork)))
		for _, action := range result.PlannedActions {
			lines = append(lines, indentationConstant+printer.muted.Render(fmt.Sprintf(plannedActionTemplateConstant, action)))
		}
	case result.AlreadyExisted:
		lines = append(lines, printer.success.Render(fmt.Sprintf(forkExistingTemplateConstant, fork)))
	default:
		lines = append(lines, printer.success.Render(fmt.Sprintf(forkCreatedTemplateConstant, fork)))
	}

	if result.Renamed {
		lines = append(lines, indentationConstant+fmt.Sprintf(renamedTemplateConstant, result.Name))
	}
	if result.DefaultBranchSet {
		lines = append(lines, indentationConstant+defaultBranchSetMessageConstant)
	}
	if result.IssuesEnabled {
		lines = append(lines, indentationConstant+issuesEnabledMessageConstant)
	}
	for _, warning := range result.Warnings {
		lines = append(lines, indentationConstant+printer.warning.Render(fmt.Sprintf(warningTemplateConstant, warning)))
	}

	return printer.writeLines(lines)
}

// PrintIssues reports issue replication counts and the detail of every failed issue.
func (printer *SummaryPrinter) PrintIssues(source forks.RepositoryRef, summary issues.Summary) error {
	lines := []string{printer.heading.Render(fmt.Sprintf(issuesHeaderTemplateConstant, source.String()))}

	switch {
	case summary.FetchFailed:
		reason := summary.FetchError
		if len(strings.TrimSpace(reason)) == 0 {
			reason = unknownFetchFailureMessageConstant
		}
		lines = append(lines, indentationConstant+printer.failure.Render(fmt.Sprintf(issuesFetchFailedTemplateConstant, reason)))
		return printer.writeLines(lines)
	case summary.Total == 0:
		lines = append(lines, indentationConstant+issuesNoneMessageConstant)
		return printer.writeLines(lines)
	case summary.DryRun:
		lines = append(lines, indentationConstant+fmt.Sprintf(issuesDryRunCountsTemplateConstant, summary.Total-summary.Skipped, summary.Total, summary.Skipped))
		return printer.writeLines(lines)
	}

	countsStyle := printer.success
	if summary.Failed > 0 {
		countsStyle = printer.warning
	}
	lines = append(lines, indentationConstant+countsStyle.Render(fmt.Sprintf(issuesCountsTemplateConstant, summary.Copied, summary.Total, summary.Failed, summary.Skipped)))

	if processed := summary.Processed(); processed < summary.Total {
		lines = append(lines, indentationConstant+printer.warning.Render(fmt.Sprintf(issuesInterruptedTemplateConstant, processed, summary.Total)))
	}
	for _, failure := range summary.Failures {
		title := failure.Title
		if len(strings.TrimSpace(title)) == 0 {
			title = untitledIssueLabelConstant
		}
		lines = append(lines, indentationConstant+printer.failure.Render(fmt.Sprintf(issueFailureTemplateConstant, failure.IssueNumber, title, failure.Reason)))
	}
	if summary.LabelFailures > 0 {
		lines = append(lines, indentationConstant+printer.muted.Render(fmt.Sprintf(labelFailuresTemplateConstant, summary.LabelFailures)))
	}

	return printer.writeLines(lines)
}

// PrintIssuesNotRequested states that issue replication was skipped for this run.
func (printer *SummaryPrinter) PrintIssuesNotRequested() error {
	return printer.writeLines([]string{printer.muted.Render(issuesNotRequestedMessageConstant)})
}

func (printer *SummaryPrinter) writeLines(lines []string) error {
	if printer == nil || printer.writer == nil {
		return nil
	}
	_, writeError := io.WriteString(printer.writer, strings.Join(lines, lineTerminatorConstant)+lineTerminatorConstant)
	return writeError
}
