package cli

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ghfork/internal/execshell"
	"github.com/temirov/ghfork/internal/forks"
	"github.com/temirov/ghfork/internal/githubapi"
	"github.com/temirov/ghfork/internal/githubauth"
	"github.com/temirov/ghfork/internal/githubcli"
	"github.com/temirov/ghfork/internal/issues"
	"github.com/temirov/ghfork/internal/ui"
)

const (
	unsupportedTransportTemplateConstant  = "unsupported transport %q: expected cli or api"
	executorCreationErrorTemplateConstant = "unable to create command executor: %w"
	tokenResolvedLogMessageConstant       = "Using GitHub token from environment"
	logFieldTokenSourceConstant           = "token_source"
	logFieldBaseURLConstant               = "base_url"
)

// TransportKind selects how ghfork talks to GitHub.
type TransportKind string

// Supported transports.
const (
	TransportCLI TransportKind = "cli"
	TransportAPI TransportKind = "api"
)

var supportedTransportNames = []string{string(TransportCLI), string(TransportAPI)}

// UnmarshalText validates transport names read from configuration.
func (kind *TransportKind) UnmarshalText(text []byte) error {
	normalized := TransportKind(strings.ToLower(strings.TrimSpace(string(text))))
	switch normalized {
	case TransportCLI, TransportAPI:
		*kind = normalized
		return nil
	default:
		return fmt.Errorf(unsupportedTransportTemplateConstant, string(text))
	}
}

// GitHubService is the full remote capability surface. Both transports implement it.
type GitHubService interface {
	forks.RepositoryService
	issues.IssueService
}

// TransportSettings carries what a ServiceFactory needs to build a transport.
type TransportSettings struct {
	Transport         TransportKind
	APIBaseURL        string
	Logger            *zap.Logger
	HumanReadable     bool
	EnvironmentLookup githubauth.EnvironmentLookup
}

// ServiceFactory builds the GitHub transport for a run.
type ServiceFactory func(settings TransportSettings) (GitHubService, error)

// NewGitHubService builds the gh CLI client or the REST client.
func NewGitHubService(settings TransportSettings) (GitHubService, error) {
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch settings.Transport {
	case TransportCLI:
		var observer execshell.CommandEventObserver
		if settings.HumanReadable {
			observer = ui.NewConsoleCommandEventLogger(logger)
		}
		executor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), observer)
		if executorError != nil {
			return nil, fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
		}
		cliClient, clientError := githubcli.NewClient(executor)
		if clientError != nil {
			return nil, clientError
		}
		return cliClient, nil
	case TransportAPI:
		token, tokenFound := githubauth.NewTokenResolver(settings.EnvironmentLookup).Resolve()
		if !tokenFound {
			return nil, githubapi.ErrTokenNotConfigured
		}
		logger.Debug(tokenResolvedLogMessageConstant, zap.String(logFieldTokenSourceConstant, token.Source), zap.String(logFieldBaseURLConstant, settings.APIBaseURL))
		apiClient, clientError := githubapi.NewClient(githubapi.ClientConfiguration{
			BaseURL: settings.APIBaseURL,
			Token:   token.Value,
			Logger:  logger,
		})
		if clientError != nil {
			return nil, clientError
		}
		return apiClient, nil
	default:
		return nil, fmt.Errorf(unsupportedTransportTemplateConstant, string(settings.Transport))
	}
}
