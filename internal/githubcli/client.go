package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/temirov/ghfork/internal/execshell"
	"github.com/temirov/ghfork/internal/forks"
	"github.com/temirov/ghfork/internal/issues"
)

const (
	authSubcommandConstant                  = "auth"
	statusSubcommandConstant                = "status"
	repoSubcommandConstant                  = "repo"
	viewSubcommandConstant                  = "view"
	forkSubcommandConstant                  = "fork"
	apiSubcommandConstant                   = "api"
	jsonFlagConstant                        = "--json"
	noCloneFlagConstant                     = "--clone=false"
	paginateFlagConstant                    = "--paginate"
	methodFlagConstant                      = "-X"
	inputFlagConstant                       = "--input"
	stdinReferenceConstant                  = "-"
	acceptHeaderFlagConstant                = "-H"
	acceptHeaderValueConstant               = "Accept: application/vnd.github+json"
	httpMethodPatchConstant                 = "PATCH"
	httpMethodPostConstant                  = "POST"
	repoViewJSONFieldsConstant              = "name"
	userEndpointConstant                    = "user"
	repositoryEndpointTemplateConstant      = "repos/%s"
	branchesEndpointTemplateConstant        = "repos/%s/branches?per_page=100"
	openIssuesEndpointTemplateConstant      = "repos/%s/issues?state=open&per_page=100"
	labelEndpointTemplateConstant           = "repos/%s/labels/%s"
	labelsEndpointTemplateConstant          = "repos/%s/labels"
	issuesEndpointTemplateConstant          = "repos/%s/issues"
	repositoryFieldNameConstant             = "repository"
	newNameFieldNameConstant                = "new_name"
	settingsFieldNameConstant               = "settings"
	labelNameFieldNameConstant              = "label_name"
	issueTitleFieldNameConstant             = "title"
	loginFieldNameConstant                  = "login"
	requiredValueMessageConstant            = "value required"
	emptySettingsMessageConstant            = "at least one setting required"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant    = "%s payload encoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	currentUserOperationNameConstant        = OperationName("CurrentUser")
	repositoryExistsOperationNameConstant   = OperationName("RepositoryExists")
	forkRepositoryOperationNameConstant     = OperationName("ForkRepository")
	renameRepositoryOperationNameConstant   = OperationName("RenameRepository")
	updateSettingsOperationNameConstant     = OperationName("UpdateRepositorySettings")
	listBranchesOperationNameConstant       = OperationName("ListBranches")
	listIssuesOperationNameConstant         = OperationName("ListIssues")
	getLabelOperationNameConstant           = OperationName("GetLabel")
	createLabelOperationNameConstant        = OperationName("CreateLabel")
	createIssueOperationNameConstant        = OperationName("CreateIssue")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
	Cause     error
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// Unwrap exposes the classification of the rejected input, when present.
func (inputError InvalidInputError) Unwrap() error {
	return inputError.Cause
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

type repositorySettingsPayload struct {
	Name          string `json:"name,omitempty"`
	DefaultBranch string `json:"default_branch,omitempty"`
	HasIssues     *bool  `json:"has_issues,omitempty"`
}

type labelPayload struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

type issuePayload struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

type branchResponse struct {
	Name string `json:"name"`
}

type issueResponse struct {
	Number      int              `json:"number"`
	Title       *string          `json:"title"`
	Body        *string          `json:"body"`
	HTMLURL     string           `json:"html_url"`
	State       string           `json:"state"`
	PullRequest *json.RawMessage `json:"pull_request"`
	Labels      []labelPayload   `json:"labels"`
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// CurrentUser verifies gh is authenticated and returns the login of the authenticated user.
func (client *Client) CurrentUser(executionContext context.Context) (string, error) {
	if _, statusError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{authSubcommandConstant, statusSubcommandConstant},
	}); statusError != nil {
		return "", OperationError{Operation: currentUserOperationNameConstant, Cause: statusError}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: client.apiArguments(userEndpointConstant),
	})
	if executionError != nil {
		return "", OperationError{Operation: currentUserOperationNameConstant, Cause: executionError}
	}

	var response struct {
		Login string `json:"login"`
	}
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return "", ResponseDecodingError{Operation: currentUserOperationNameConstant, Cause: decodingError}
	}

	login := strings.TrimSpace(response.Login)
	if len(login) == 0 {
		return "", InvalidInputError{FieldName: loginFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return login, nil
}

// RepositoryExists reports whether gh repo view can resolve the repository. A non-zero exit
// means the repository is absent or inaccessible and is reported as false without error.
func (client *Client) RepositoryExists(executionContext context.Context, repository forks.RepositoryRef) (bool, error) {
	if validationError := validateRepository(repository); validationError != nil {
		return false, validationError
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{repoSubcommandConstant, viewSubcommandConstant, repository.String(), jsonFlagConstant, repoViewJSONFieldsConstant},
	})
	if executionError == nil {
		return true, nil
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		return false, nil
	}
	return false, OperationError{Operation: repositoryExistsOperationNameConstant, Cause: executionError}
}

// ForkRepository forks the source under the authenticated user without cloning it locally.
func (client *Client) ForkRepository(executionContext context.Context, source forks.RepositoryRef) error {
	if validationError := validateRepository(source); validationError != nil {
		return validationError
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{repoSubcommandConstant, forkSubcommandConstant, source.String(), noCloneFlagConstant},
	})
	if executionError != nil {
		return OperationError{Operation: forkRepositoryOperationNameConstant, Cause: executionError}
	}
	return nil
}

// RenameRepository patches the repository name.
func (client *Client) RenameRepository(executionContext context.Context, repository forks.RepositoryRef, newName string) error {
	if validationError := validateRepository(repository); validationError != nil {
		return validationError
	}
	trimmedName := strings.TrimSpace(newName)
	if len(trimmedName) == 0 {
		return InvalidInputError{FieldName: newNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	return client.patchRepository(executionContext, renameRepositoryOperationNameConstant, repository, repositorySettingsPayload{Name: trimmedName})
}

// UpdateRepositorySettings patches default_branch and has_issues.
func (client *Client) UpdateRepositorySettings(executionContext context.Context, repository forks.RepositoryRef, settings forks.RepositorySettings) error {
	if validationError := validateRepository(repository); validationError != nil {
		return validationError
	}
	payload := repositorySettingsPayload{DefaultBranch: strings.TrimSpace(settings.DefaultBranch), HasIssues: settings.HasIssues}
	if len(payload.DefaultBranch) == 0 && payload.HasIssues == nil {
		return InvalidInputError{FieldName: settingsFieldNameConstant, Message: emptySettingsMessageConstant}
	}

	return client.patchRepository(executionContext, updateSettingsOperationNameConstant, repository, payload)
}

// ListBranches returns every branch name of the repository.
func (client *Client) ListBranches(executionContext context.Context, repository forks.RepositoryRef) ([]string, error) {
	if validationError := validateRepository(repository); validationError != nil {
		return nil, validationError
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: client.apiArguments(fmt.Sprintf(branchesEndpointTemplateConstant, repository), paginateFlagConstant),
	})
	if executionError != nil {
		return nil, OperationError{Operation: listBranchesOperationNameConstant, Cause: executionError}
	}

	branchEntries, decodingError := decodePages[branchResponse](executionResult.StandardOutput)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listBranchesOperationNameConstant, Cause: decodingError}
	}

	branches := make([]string, 0, len(branchEntries))
	for _, branchEntry := range branchEntries {
		branches = append(branches, branchEntry.Name)
	}
	return branches, nil
}

// ListIssues returns every open issue and pull request of the repository, following pagination.
func (client *Client) ListIssues(executionContext context.Context, repository forks.RepositoryRef) ([]issues.SourceIssue, error) {
	if validationError := validateRepository(repository); validationError != nil {
		return nil, validationError
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: client.apiArguments(fmt.Sprintf(openIssuesEndpointTemplateConstant, repository), paginateFlagConstant),
	})
	if executionError != nil {
		return nil, OperationError{Operation: listIssuesOperationNameConstant, Cause: executionError}
	}

	issueEntries, decodingError := decodePages[issueResponse](executionResult.StandardOutput)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listIssuesOperationNameConstant, Cause: decodingError}
	}

	sourceIssues := make([]issues.SourceIssue, 0, len(issueEntries))
	for _, issueEntry := range issueEntries {
		sourceIssue := issues.SourceIssue{
			Number:        issueEntry.Number,
			Title:         issueEntry.Title,
			HTMLURL:       issueEntry.HTMLURL,
			State:         issueEntry.State,
			IsPullRequest: issueEntry.PullRequest != nil,
		}
		if issueEntry.Body != nil {
			sourceIssue.Body = *issueEntry.Body
		}
		for _, labelEntry := range issueEntry.Labels {
			sourceIssue.Labels = append(sourceIssue.Labels, issues.Label{Name: labelEntry.Name, Color: labelEntry.Color, Description: labelEntry.Description})
		}
		sourceIssues = append(sourceIssues, sourceIssue)
	}
	return sourceIssues, nil
}

// GetLabel looks up a label by name.
func (client *Client) GetLabel(executionContext context.Context, repository forks.RepositoryRef, name string) (issues.Label, error) {
	if validationError := validateRepository(repository); validationError != nil {
		return issues.Label{}, validationError
	}
	if validationError := validateLabelName(name); validationError != nil {
		return issues.Label{}, validationError
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: client.apiArguments(fmt.Sprintf(labelEndpointTemplateConstant, repository, url.PathEscape(name))),
	})
	if executionError != nil {
		return issues.Label{}, OperationError{Operation: getLabelOperationNameConstant, Cause: executionError}
	}

	var response labelPayload
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return issues.Label{}, ResponseDecodingError{Operation: getLabelOperationNameConstant, Cause: decodingError}
	}
	return issues.Label{Name: response.Name, Color: response.Color, Description: response.Description}, nil
}

// CreateLabel creates a label. An existing label with the same name yields an OperationError.
func (client *Client) CreateLabel(executionContext context.Context, repository forks.RepositoryRef, label issues.Label) error {
	if validationError := validateRepository(repository); validationError != nil {
		return validationError
	}
	if validationError := validateLabelName(label.Name); validationError != nil {
		return validationError
	}

	payloadBytes, encodingError := json.Marshal(labelPayload{Name: label.Name, Color: label.Color, Description: label.Description})
	if encodingError != nil {
		return PayloadEncodingError{Operation: createLabelOperationNameConstant, Cause: encodingError}
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments:     client.mutationArguments(fmt.Sprintf(labelsEndpointTemplateConstant, repository), httpMethodPostConstant),
		StandardInput: payloadBytes,
	})
	if executionError != nil {
		return OperationError{Operation: createLabelOperationNameConstant, Cause: executionError}
	}
	return nil
}

// CreateIssue creates an issue and returns the reference reported by the API.
func (client *Client) CreateIssue(executionContext context.Context, repository forks.RepositoryRef, issue issues.NewIssue) (issues.CreatedIssue, error) {
	if validationError := validateRepository(repository); validationError != nil {
		return issues.CreatedIssue{}, validationError
	}
	if len(strings.TrimSpace(issue.Title)) == 0 {
		return issues.CreatedIssue{}, InvalidInputError{FieldName: issueTitleFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payloadBytes, encodingError := json.Marshal(issuePayload{Title: issue.Title, Body: issue.Body, Labels: issue.Labels})
	if encodingError != nil {
		return issues.CreatedIssue{}, PayloadEncodingError{Operation: createIssueOperationNameConstant, Cause: encodingError}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments:     client.mutationArguments(fmt.Sprintf(issuesEndpointTemplateConstant, repository), httpMethodPostConstant),
		StandardInput: payloadBytes,
	})
	if executionError != nil {
		return issues.CreatedIssue{}, OperationError{Operation: createIssueOperationNameConstant, Cause: executionError}
	}

	var response struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return issues.CreatedIssue{}, ResponseDecodingError{Operation: createIssueOperationNameConstant, Cause: decodingError}
	}
	return issues.CreatedIssue{Number: response.Number, HTMLURL: response.HTMLURL}, nil
}

func (client *Client) patchRepository(executionContext context.Context, operation OperationName, repository forks.RepositoryRef, payload repositorySettingsPayload) error {
	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return PayloadEncodingError{Operation: operation, Cause: encodingError}
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments:     client.mutationArguments(fmt.Sprintf(repositoryEndpointTemplateConstant, repository), httpMethodPatchConstant),
		StandardInput: payloadBytes,
	})
	if executionError != nil {
		return OperationError{Operation: operation, Cause: executionError}
	}
	return nil
}

func (client *Client) apiArguments(endpoint string, additionalArguments ...string) []string {
	arguments := []string{apiSubcommandConstant, endpoint}
	arguments = append(arguments, additionalArguments...)
	return append(arguments, acceptHeaderFlagConstant, acceptHeaderValueConstant)
}

func (client *Client) mutationArguments(endpoint string, method string) []string {
	return client.apiArguments(endpoint, methodFlagConstant, method, inputFlagConstant, stdinReferenceConstant)
}

func validateRepository(repository forks.RepositoryRef) error {
	if len(strings.TrimSpace(repository.Owner)) == 0 || len(strings.TrimSpace(repository.Name)) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

func validateLabelName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return InvalidInputError{FieldName: labelNameFieldNameConstant, Message: requiredValueMessageConstant, Cause: issues.ErrMalformedLabel}
	}
	return nil
}

// decodePages decodes gh api --paginate output, which concatenates one JSON array per page.
func decodePages[T any](output string) ([]T, error) {
	decoder := json.NewDecoder(strings.NewReader(output))
	var entries []T
	for {
		var page []T
		decodingError := decoder.Decode(&page)
		if errors.Is(decodingError, io.EOF) {
			return entries, nil
		}
		if decodingError != nil {
			return nil, decodingError
		}
		entries = append(entries, page...)
	}
}
