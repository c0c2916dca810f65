package execshell

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	actionFailureTemplateConstant           = "Failed to %s (exit code %d%s)"
	actionExecutionFailureTemplateConstant  = "Unable to %s: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	commandArgumentsJoinSeparatorConstant   = " "
	unknownFailureMessageConstant           = "unknown error"
	unknownValueLabelConstant               = "unknown"
	emptyStringConstant                     = ""
)

const (
	githubAuthSubcommandNameConstant       = "auth"
	githubAuthStatusSubcommandNameConstant = "status"
	githubRepoSubcommandNameConstant       = "repo"
	githubRepoViewSubcommandNameConstant   = "view"
	githubRepoForkSubcommandNameConstant   = "fork"
	githubAPISubcommandNameConstant        = "api"
	githubMethodFlagConstant               = "-X"
	githubUserEndpointConstant             = "user"
	githubRepositoriesEndpointPrefix       = "repos/"
	githubBranchesEndpointSegment          = "branches"
	githubIssuesEndpointSegment            = "issues"
	githubLabelsEndpointSegment            = "labels"
	githubMethodGetConstant                = "GET"
	githubMethodPostConstant               = "POST"
	githubMethodPatchConstant              = "PATCH"
	payloadNameFieldConstant               = "name"
	payloadTitleFieldConstant              = "title"
	payloadDefaultBranchFieldConstant      = "default_branch"
	payloadHasIssuesFieldConstant          = "has_issues"
)

// commandAction phrases one gh invocation in progressive, past, and infinitive form.
type commandAction struct {
	progressive string
	past        string
	infinitive  string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	action, recognized := formatter.describeGitHubCommand(command)
	if !recognized {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch stage {
	case messageStageStart:
		return action.progressive
	case messageStageSuccess:
		return action.past
	case messageStageFailure:
		return fmt.Sprintf(actionFailureTemplateConstant, action.infinitive, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(actionExecutionFailureTemplateConstant, action.infinitive, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describeGitHubCommand(command ShellCommand) (commandAction, bool) {
	if command.Name != CommandGitHub {
		return commandAction{}, false
	}
	arguments := command.Details.Arguments
	if len(arguments) < 2 {
		return commandAction{}, false
	}

	primary := strings.TrimSpace(arguments[0])
	secondary := strings.TrimSpace(arguments[1])
	switch primary {
	case githubAuthSubcommandNameConstant:
		if secondary == githubAuthStatusSubcommandNameConstant {
			return commandAction{
				progressive: "Checking GitHub CLI authentication",
				past:        "GitHub CLI is authenticated",
				infinitive:  "verify GitHub CLI authentication",
			}, true
		}
	case githubRepoSubcommandNameConstant:
		if len(arguments) < 3 {
			return commandAction{}, false
		}
		repository := formatter.ensureValue(arguments[2])
		switch secondary {
		case githubRepoViewSubcommandNameConstant:
			return commandAction{
				progressive: fmt.Sprintf("Checking whether %s exists", repository),
				past:        fmt.Sprintf("Found %s", repository),
				infinitive:  fmt.Sprintf("find %s", repository),
			}, true
		case githubRepoForkSubcommandNameConstant:
			return commandAction{
				progressive: fmt.Sprintf("Forking %s", repository),
				past:        fmt.Sprintf("Forked %s", repository),
				infinitive:  fmt.Sprintf("fork %s", repository),
			}, true
		}
	case githubAPISubcommandNameConstant:
		return formatter.describeGitHubAPICommand(command, secondary)
	}

	return commandAction{}, false
}

func (formatter CommandMessageFormatter) describeGitHubAPICommand(command ShellCommand, endpoint string) (commandAction, bool) {
	method := strings.ToUpper(strings.TrimSpace(findFlagValue(command.Details.Arguments, githubMethodFlagConstant)))
	if len(method) == 0 {
		method = githubMethodGetConstant
	}

	endpointPath := endpoint
	if queryIndex := strings.Index(endpointPath, "?"); queryIndex >= 0 {
		endpointPath = endpointPath[:queryIndex]
	}

	if endpointPath == githubUserEndpointConstant {
		return commandAction{
			progressive: "Resolving the authenticated GitHub user",
			past:        "Resolved the authenticated GitHub user",
			infinitive:  "resolve the authenticated GitHub user",
		}, true
	}

	if !strings.HasPrefix(endpointPath, githubRepositoriesEndpointPrefix) {
		return commandAction{}, false
	}
	segments := strings.Split(strings.TrimPrefix(endpointPath, githubRepositoriesEndpointPrefix), "/")
	if len(segments) < 2 {
		return commandAction{}, false
	}
	repository := segments[0] + "/" + segments[1]
	payload := formatter.decodePayload(command.Details.StandardInput)

	switch {
	case len(segments) == 2 && method == githubMethodPatchConstant:
		return formatter.describeRepositoryUpdate(repository, payload), true
	case len(segments) == 3 && segments[2] == githubBranchesEndpointSegment:
		return commandAction{
			progressive: fmt.Sprintf("Listing branches of %s", repository),
			past:        fmt.Sprintf("Listed branches of %s", repository),
			infinitive:  fmt.Sprintf("list branches of %s", repository),
		}, true
	case len(segments) == 3 && segments[2] == githubIssuesEndpointSegment && method == githubMethodPostConstant:
		title := formatter.ensureValue(payloadString(payload, payloadTitleFieldConstant))
		return commandAction{
			progressive: fmt.Sprintf("Creating issue %q in %s", title, repository),
			past:        fmt.Sprintf("Created issue %q in %s", title, repository),
			infinitive:  fmt.Sprintf("create issue %q in %s", title, repository),
		}, true
	case len(segments) == 3 && segments[2] == githubIssuesEndpointSegment:
		return commandAction{
			progressive: fmt.Sprintf("Listing open issues of %s", repository),
			past:        fmt.Sprintf("Listed open issues of %s", repository),
			infinitive:  fmt.Sprintf("list open issues of %s", repository),
		}, true
	case len(segments) == 3 && segments[2] == githubLabelsEndpointSegment && method == githubMethodPostConstant:
		labelName := formatter.ensureValue(payloadString(payload, payloadNameFieldConstant))
		return commandAction{
			progressive: fmt.Sprintf("Creating label %s in %s", labelName, repository),
			past:        fmt.Sprintf("Created label %s in %s", labelName, repository),
			infinitive:  fmt.Sprintf("create label %s in %s", labelName, repository),
		}, true
	case len(segments) == 4 && segments[2] == githubLabelsEndpointSegment:
		labelName := segments[3]
		if unescaped, unescapeError := url.PathUnescape(labelName); unescapeError == nil {
			labelName = unescaped
		}
		return commandAction{
			progressive: fmt.Sprintf("Looking up label %s in %s", labelName, repository),
			past:        fmt.Sprintf("Found label %s in %s", labelName, repository),
			infinitive:  fmt.Sprintf("look up label %s in %s", labelName, repository),
		}, true
	}

	return commandAction{}, false
}

func (formatter CommandMessageFormatter) describeRepositoryUpdate(repository string, payload map[string]any) commandAction {
	if newName := payloadString(payload, payloadNameFieldConstant); len(newName) > 0 {
		return commandAction{
			progressive: fmt.Sprintf("Renaming %s to %s", repository, newName),
			past:        fmt.Sprintf("Renamed %s to %s", repository, newName),
			infinitive:  fmt.Sprintf("rename %s to %s", repository, newName),
		}
	}
	if branch := payloadString(payload, payloadDefaultBranchFieldConstant); len(branch) > 0 {
		return commandAction{
			progressive: fmt.Sprintf("Setting default branch for %s to %s", repository, branch),
			past:        fmt.Sprintf("Set default branch for %s to %s", repository, branch),
			infinitive:  fmt.Sprintf("set default branch for %s to %s", repository, branch),
		}
	}
	if _, hasIssues := payload[payloadHasIssuesFieldConstant]; hasIssues {
		return commandAction{
			progressive: fmt.Sprintf("Enabling issues for %s", repository),
			past:        fmt.Sprintf("Enabled issues for %s", repository),
			infinitive:  fmt.Sprintf("enable issues for %s", repository),
		}
	}
	return commandAction{
		progressive: fmt.Sprintf("Updating settings for %s", repository),
		past:        fmt.Sprintf("Updated settings for %s", repository),
		infinitive:  fmt.Sprintf("update settings for %s", repository),
	}
}

func (formatter CommandMessageFormatter) decodePayload(standardInput []byte) map[string]any {
	if len(standardInput) == 0 {
		return nil
	}
	var payload map[string]any
	if decodeError := json.Unmarshal(standardInput, &payload); decodeError != nil {
		return nil
	}
	return payload
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = commandLabel + commandArgumentsJoinSeparatorConstant + strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant)
	}
	workingDirectorySuffix := emptyStringConstant
	if trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return unknownValueLabelConstant
	}
	return trimmedValue
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments)-1; argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flag {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return emptyStringConstant
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return emptyStringConstant
	}
	value, isString := payload[key].(string)
	if !isString {
		return emptyStringConstant
	}
	return strings.TrimSpace(value)
}
