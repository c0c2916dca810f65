package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/temirov/ghfork/internal/forks"
	"github.com/temirov/ghfork/internal/issues"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com/"

	defaultRetryMaxConstant                 = 4
	defaultRetryWaitMinConstant             = time.Second
	defaultRetryWaitMaxConstant             = 30 * time.Second
	pageSizeConstant                        = 100
	issueStateOpenConstant                  = "open"
	urlPathSeparatorConstant                = "/"
	repositoryFieldNameConstant             = "repository"
	newNameFieldNameConstant                = "new_name"
	settingsFieldNameConstant               = "settings"
	labelNameFieldNameConstant              = "label_name"
	issueTitleFieldNameConstant             = "title"
	loginFieldNameConstant                  = "login"
	baseURLFieldNameConstant                = "base_url"
	requiredValueMessageConstant            = "value required"
	emptySettingsMessageConstant            = "at least one setting required"
	tokenNotConfiguredMessageConstant       = "GitHub token not configured; set GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN"
	operationErrorMessageTemplateConstant   = "%s request failed"
	operationErrorWithCauseTemplateConstant = "%s request failed: %s"
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

// OperationName describes a GitHub REST workflow supported by the client.
type OperationName string

// ErrTokenNotConfigured indicates the REST transport was selected without a token.
var ErrTokenNotConfigured = errors.New(tokenNotConfiguredMessageConstant)

// OperationError wraps failed REST requests.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the request failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying go-github error.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

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

// ClientConfiguration configures the REST transport. Zero retry values select defaults.
type ClientConfiguration struct {
	BaseURL      string
	Token        string
	Logger       *zap.Logger
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client talks to the GitHub REST API through go-github over a retrying HTTP client.
type Client struct {
	github *github.Client
}

// NewClient constructs a REST client.
func NewClient(configuration ClientConfiguration) (*Client, error) {
	token := strings.TrimSpace(configuration.Token)
	if len(token) == 0 {
		return nil, ErrTokenNotConfigured
	}

	baseURL, baseURLError := resolveBaseURL(configuration.BaseURL)
	if baseURLError != nil {
		return nil, baseURLError
	}

	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	retryingClient := retryablehttp.NewClient()
	retryingClient.Logger = newLeveledLogger(logger)
	retryingClient.CheckRetry = checkRetry
	retryingClient.Backoff = rateLimitBackoff
	retryingClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryingClient.RetryMax = defaultRetryMaxConstant
	retryingClient.RetryWaitMin = defaultRetryWaitMinConstant
	retryingClient.RetryWaitMax = defaultRetryWaitMaxConstant
	if configuration.RetryMax > 0 {
		retryingClient.RetryMax = configuration.RetryMax
	}
	if configuration.RetryWaitMin > 0 {
		retryingClient.RetryWaitMin = configuration.RetryWaitMin
	}
	if configuration.RetryWaitMax > 0 {
		retryingClient.RetryWaitMax = configuration.RetryWaitMax
	}

	httpClient := retryingClient.StandardClient()
	httpClient.Transport = methodRecordingTransport{next: httpClient.Transport}
	githubClient := github.NewClient(httpClient).WithAuthToken(token)
	githubClient.BaseURL = baseURL

	return &Client{github: githubClient}, nil
}

func resolveBaseURL(rawBaseURL string) (*url.URL, error) {
	trimmedBaseURL := strings.TrimSpace(rawBaseURL)
	if len(trimmedBaseURL) == 0 {
		trimmedBaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(trimmedBaseURL, urlPathSeparatorConstant) {
		trimmedBaseURL += urlPathSeparatorConstant
	}

	parsedURL, parseError := url.Parse(trimmedBaseURL)
	if parseError != nil || len(parsedURL.Scheme) == 0 || len(parsedURL.Host) == 0 {
		return nil, InvalidInputError{FieldName: baseURLFieldNameConstant, Message: trimmedBaseURL, Cause: parseError}
	}
	return parsedURL, nil
}

// CurrentUser returns the login that owns the token.
func (client *Client) CurrentUser(executionContext context.Context) (string, error) {
	user, _, requestError := client.github.Users.Get(executionContext, "")
	if requestError != nil {
		return "", OperationError{Operation: currentUserOperationNameConstant, Cause: requestError}
	}

	login := strings.TrimSpace(user.GetLogin())
	if len(login) == 0 {
		return "", InvalidInputError{FieldName: loginFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return login, nil
}

// RepositoryExists reports whether the repository can be read. A 404 is reported as false without error.
func (client *Client) RepositoryExists(executionContext context.Context, repository forks.RepositoryRef) (bool, error) {
	if validationError := validateRepository(repository); validationError != nil {
		return false, validationError
	}

	_, response, requestError := client.github.Repositories.Get(executionContext, repository.Owner, repository.Name)
	if requestError == nil {
		return true, nil
	}
	if response != nil && response.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, OperationError{Operation: repositoryExistsOperationNameConstant, Cause: requestError}
}

// ForkRepository forks the source under the token owner. GitHub answers 202 while the fork
// is scheduled, which counts as success.
func (client *Client) ForkRepository(executionContext context.Context, source forks.RepositoryRef) error {
	if validationError := validateRepository(source); validationError != nil {
		return validationError
	}

	_, _, requestError := client.github.Repositories.CreateFork(executionContext, source.Owner, source.Name, &github.RepositoryCreateForkOptions{})
	if requestError == nil {
		return nil
	}

	var acceptedError *github.AcceptedError
	if errors.As(requestError, &acceptedError) {
		return nil
	}
	return OperationError{Operation: forkRepositoryOperationNameConstant, Cause: requestError}
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

	_, _, requestError := client.github.Repositories.Edit(executionContext, repository.Owner, repository.Name, &github.Repository{Name: github.String(trimmedName)})
	if requestError != nil {
		return OperationError{Operation: renameRepositoryOperationNameConstant, Cause: requestError}
	}
	return nil
}

// UpdateRepositorySettings patches default_branch and has_issues.
func (client *Client) UpdateRepositorySettings(executionContext context.Context, repository forks.RepositoryRef, settings forks.RepositorySettings) error {
	if validationError := validateRepository(repository); validationError != nil {
		return validationError
	}

	patch := &github.Repository{HasIssues: settings.HasIssues}
	if defaultBranch := strings.TrimSpace(settings.DefaultBranch); len(defaultBranch) > 0 {
		patch.DefaultBranch = github.String(defaultBranch)
	}
	if patch.DefaultBranch == nil && patch.HasIssues == nil {
		return InvalidInputError{FieldName: settingsFieldNameConstant, Message: emptySettingsMessageConstant}
	}

	_, _, requestError := client.github.Repositories.Edit(executionContext, repository.Owner, repository.Name, patch)
	if requestError != nil {
		return OperationError{Operation: updateSettingsOperationNameConstant, Cause: requestError}
	}
	return nil
}

// ListBranches returns every branch name of the repository.
func (client *Client) ListBranches(executionContext context.Context, repository forks.RepositoryRef) ([]string, error) {
	if validationError := validateRepository(repository); validationError != nil {
		return nil, validationError
	}

	options := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: pageSizeConstant}}
	var branches []string
	for {
		page, response, requestError := client.github.Repositories.ListBranches(executionContext, repository.Owner, repository.Name, options)
		if requestError != nil {
			return nil, OperationError{Operation: listBranchesOperationNameConstant, Cause: requestError}
		}
		for _, branch := range page {
			branches = append(branches, branch.GetName())
		}
		if response.NextPage == 0 {
			return branches, nil
		}
		options.Page = response.NextPage
	}
}

// ListIssues returns every open issue and pull request of the repository, following pagination.
func (client *Client) ListIssues(executionContext context.Context, repository forks.RepositoryRef) ([]issues.SourceIssue, error) {
	if validationError := validateRepository(repository); validationError != nil {
		return nil, validationError
	}

	options := &github.IssueListByRepoOptions{
		State:       issueStateOpenConstant,
		ListOptions: github.ListOptions{PerPage: pageSizeConstant},
	}
	var sourceIssues []issues.SourceIssue
	for {
		page, response, requestError := client.github.Issues.ListByRepo(executionContext, repository.Owner, repository.Name, options)
		if requestError != nil {
			return nil, OperationError{Operation: listIssuesOperationNameConstant, Cause: requestError}
		}
		for _, listedIssue := range page {
			sourceIssues = append(sourceIssues, convertIssue(listedIssue))
		}
		if response.NextPage == 0 {
			return sourceIssues, nil
		}
		options.Page = response.NextPage
	}
}

// GetLabel looks up a label by name.
func (client *Client) GetLabel(executionContext context.Context, repository forks.RepositoryRef, name string) (issues.Label, error) {
	if validationError := validateRepository(repository); validationError != nil {
		return issues.Label{}, validationError
	}
	if validationError := validateLabelName(name); validationError != nil {
		return issues.Label{}, validationError
	}

	label, _, requestError := client.github.Issues.GetLabel(executionContext, repository.Owner, repository.Name, name)
	if requestError != nil {
		return issues.Label{}, OperationError{Operation: getLabelOperationNameConstant, Cause: requestError}
	}
	return issues.Label{Name: label.GetName(), Color: label.GetColor(), Description: label.GetDescription()}, nil
}

// CreateLabel creates a label. An existing label with the same name yields an OperationError.
func (client *Client) CreateLabel(executionContext context.Context, repository forks.RepositoryRef, label issues.Label) error {
	if validationError := validateRepository(repository); validationError != nil {
		return validationError
	}
	if validationError := validateLabelName(label.Name); validationError != nil {
		return validationError
	}

	request := &github.Label{Name: github.String(label.Name)}
	if len(label.Color) > 0 {
		request.Color = github.String(label.Color)
	}
	if len(label.Description) > 0 {
		request.Description = github.String(label.Description)
	}

	_, _, requestError := client.github.Issues.CreateLabel(executionContext, repository.Owner, repository.Name, request)
	if requestError != nil {
		return OperationError{Operation: createLabelOperationNameConstant, Cause: requestError}
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

	request := &github.IssueRequest{Title: github.String(issue.Title), Body: github.String(issue.Body)}
	if len(issue.Labels) > 0 {
		labels := append([]string(nil), issue.Labels...)
		request.Labels = &labels
	}

	createdIssue, _, requestError := client.github.Issues.Create(executionContext, repository.Owner, repository.Name, request)
	if requestError != nil {
		return issues.CreatedIssue{}, OperationError{Operation: createIssueOperationNameConstant, Cause: requestError}
	}
	return issues.CreatedIssue{Number: createdIssue.GetNumber(), HTMLURL: createdIssue.GetHTMLURL()}, nil
}

func convertIssue(listedIssue *github.Issue) issues.SourceIssue {
	sourceIssue := issues.SourceIssue{
		Number:        listedIssue.GetNumber(),
		Title:         listedIssue.Title,
		Body:          listedIssue.GetBody(),
		HTMLURL:       listedIssue.GetHTMLURL(),
		State:         listedIssue.GetState(),
		IsPullRequest: listedIssue.IsPullRequest(),
	}
	for _, label := range listedIssue.Labels {
		sourceIssue.Labels = append(sourceIssue.Labels, issues.Label{Name: label.GetName(), Color: label.GetColor(), Description: label.GetDescription()})
	}
	return sourceIssue
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
