package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ghfork/internal/forks"
	"github.com/temirov/ghfork/internal/githubauth"
	"github.com/temirov/ghfork/internal/issues"
	"github.com/temirov/ghfork/internal/ui"
	"github.com/temirov/ghfork/internal/utils"
	"github.com/temirov/ghfork/internal/utils/flags"
)

const (
	applicationUseConstant                  = "ghfork <owner/name>"
	applicationShortDescriptionConstant     = "Fork a GitHub repository and optionally copy its open issues"
	applicationLongDescriptionConstant      = "ghfork forks a repository under the authenticated account, optionally renames the fork, sets its default branch, and copies open issues with their labels."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	transportFlagNameConstant               = "transport"
	transportFlagUsageConstant              = "GitHub transport: the gh CLI or the REST API (token from GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN)."
	branchFlagNameConstant                  = "branch"
	branchFlagUsageConstant                 = "Branch to set as the fork's default branch."
	targetNameFlagNameConstant              = "target-name"
	targetNameFlagUsageConstant             = "Name for the fork; defaults to the source repository name."
	copyIssuesFlagNameConstant              = "copy-issues"
	copyIssuesFlagUsageConstant             = "Copy open issues and their labels into the fork."
	dryRunFlagNameConstant                  = "dry-run"
	dryRunFlagUsageConstant                 = "Show what would change without modifying GitHub."
	environmentPrefixConstant               = "GHFORK"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	workingDirectorySearchPathConstant      = "."
	userConfigurationSearchPathConstant     = "$HOME/.ghfork"
	configurationInitializedMessageConstant = "configuration initialized"
	forkRunStartedMessageConstant           = "Starting fork run"
	authenticatedMessageConstant            = "Authenticated"
	issueCopyDisabledMessageConstant        = "Issue copy not requested"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	serviceCreationErrorTemplateConstant    = "unable to initialize %s transport: %w"
	summaryOutputErrorTemplateConstant      = "unable to write summary: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	logFieldLogLevelConstant                = "log_level"
	logFieldLogFormatConstant               = "log_format"
	logFieldConfigFileConstant              = "config_file"
	logFieldTransportConstant               = "transport"
	logFieldSourceConstant                  = "source"
	logFieldActorConstant                   = "actor"
	logFieldDryRunConstant                  = "dry_run"
)

// Version is reported by --version and set at build time through -ldflags.
var Version = "dev"

var (
	supportedLogLevels  = []string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)}
	supportedLogFormats = []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	GitHub GitHubConfiguration            `mapstructure:"github"`
	Fork   ForkConfiguration              `mapstructure:"fork"`
	Issues IssuesConfiguration            `mapstructure:"issues"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// GitHubConfiguration selects and configures the transport.
type GitHubConfiguration struct {
	Transport  TransportKind `mapstructure:"transport"`
	APIBaseURL string        `mapstructure:"api_base_url"`
}

// ForkConfiguration tunes fork setup.
type ForkConfiguration struct {
	RenameDelay time.Duration `mapstructure:"rename_delay"`
}

// IssuesConfiguration tunes issue replication.
type IssuesConfiguration struct {
	PacingDelay        time.Duration `mapstructure:"pacing_delay"`
	ProvenanceTemplate string        `mapstructure:"provenance_template"`
}

// ApplicationDependencies allows tests to replace the network and clock facing collaborators.
// Zero values select the production implementations.
type ApplicationDependencies struct {
	ServiceFactory    ServiceFactory
	Sleeper           forks.Sleeper
	EnvironmentLookup githubauth.EnvironmentLookup
	LoggerFactory     func(level utils.LogLevel, format utils.LogFormat) (*zap.Logger, error)
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          func(level utils.LogLevel, format utils.LogFormat) (*zap.Logger, error)
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	commandContextAccessor utils.CommandContextAccessor
	serviceFactory         ServiceFactory
	sleeper                forks.Sleeper
	environmentLookup      githubauth.EnvironmentLookup
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	transportFlagValue     string
	branchFlagValue        string
	targetNameFlagValue    string
	copyIssuesFlagValue    bool
	dryRunFlagValue        bool
}

// NewApplication assembles the production CLI application.
func NewApplication() *Application {
	return NewApplicationWithDependencies(ApplicationDependencies{})
}

// NewApplicationWithDependencies assembles a CLI application with replaced collaborators.
func NewApplicationWithDependencies(dependencies ApplicationDependencies) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{workingDirectorySearchPathConstant, userConfigurationSearchPathConstant},
	)
	embeddedConfiguration, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfiguration, embeddedConfigurationType)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          dependencies.LoggerFactory,
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		serviceFactory:         dependencies.ServiceFactory,
		sleeper:                dependencies.Sleeper,
		environmentLookup:      dependencies.EnvironmentLookup,
	}
	if application.loggerFactory == nil {
		application.loggerFactory = utils.NewLoggerFactory().CreateLogger
	}
	if application.serviceFactory == nil {
		application.serviceFactory = NewGitHubService
	}
	if application.sleeper == nil {
		application.sleeper = forks.TimerSleeper{}
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runFork(command, arguments)
		},
	}

	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flags.AddChoiceFlag(persistentFlags, &application.logLevelFlagValue, logLevelFlagNameConstant, "", supportedLogLevels, logLevelFlagUsageConstant)
	flags.AddChoiceFlag(persistentFlags, &application.logFormatFlagValue, logFormatFlagNameConstant, "", supportedLogFormats, logFormatFlagUsageConstant)

	commandFlags := cobraCommand.Flags()
	flags.AddChoiceFlag(commandFlags, &application.transportFlagValue, transportFlagNameConstant, "", supportedTransportNames, transportFlagUsageConstant)
	commandFlags.StringVar(&application.branchFlagValue, branchFlagNameConstant, "", branchFlagUsageConstant)
	commandFlags.StringVar(&application.targetNameFlagValue, targetNameFlagNameConstant, "", targetNameFlagUsageConstant)
	flags.AddToggleFlag(commandFlags, &application.copyIssuesFlagValue, copyIssuesFlagNameConstant, false, copyIssuesFlagUsageConstant)
	flags.AddToggleFlag(commandFlags, &application.dryRunFlagValue, dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// SetOutput redirects the summary and help output.
func (application *Application) SetOutput(output io.Writer) {
	application.rootCommand.SetOut(output)
	application.rootCommand.SetErr(output)
}

// Execute runs the root command with the given arguments and flushes the logger.
func (application *Application) Execute(executionContext context.Context, arguments []string) error {
	normalizedArguments := flags.NormalizeToggleArguments(arguments)
	if normalizedArguments == nil {
		normalizedArguments = []string{}
	}
	application.rootCommand.SetArgs(normalizedArguments)
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds the production application and runs it with the process arguments.
func Execute(executionContext context.Context) error {
	return NewApplication().Execute(executionContext, os.Args[1:])
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, nil, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if command.Flags().Changed(logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if command.Flags().Changed(logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if command.Flags().Changed(transportFlagNameConstant) {
		application.configuration.GitHub.Transport = TransportKind(application.transportFlagValue)
	}

	logger, loggerCreationError := application.loggerFactory(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(logFieldLogLevelConstant, application.configuration.Common.LogLevel),
		zap.String(logFieldLogFormatConstant, application.configuration.Common.LogFormat),
		zap.String(logFieldConfigFileConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(logFieldTransportConstant, string(application.configuration.GitHub.Transport)),
	)

	updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
	updatedContext = application.commandContextAccessor.WithTransportName(updatedContext, string(application.configuration.GitHub.Transport))
	command.SetContext(updatedContext)

	return nil
}

func (application *Application) runFork(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}
	executionContext := command.Context()

	source, referenceError := forks.ParseRepositoryReference(arguments[0])
	if referenceError != nil {
		return referenceError
	}

	transportName, _ := application.commandContextAccessor.TransportName(executionContext)
	application.logger.Info(
		forkRunStartedMessageConstant,
		zap.String(logFieldSourceConstant, source.String()),
		zap.String(logFieldTransportConstant, transportName),
		zap.Bool(logFieldDryRunConstant, application.dryRunFlagValue),
	)

	gitHubService, serviceError := application.serviceFactory(TransportSettings{
		Transport:         application.configuration.GitHub.Transport,
		APIBaseURL:        application.configuration.GitHub.APIBaseURL,
		Logger:            application.logger,
		HumanReadable:     utils.LogFormat(application.configuration.Common.LogFormat).IsConsole(),
		EnvironmentLookup: application.environmentLookup,
	})
	if serviceError != nil {
		return fmt.Errorf(serviceCreationErrorTemplateConstant, application.configuration.GitHub.Transport, serviceError)
	}

	authenticator, authenticatorError := forks.NewAuthenticator(gitHubService)
	if authenticatorError != nil {
		return authenticatorError
	}
	actor, authenticationError := authenticator.Authenticate(executionContext, source)
	if authenticationError != nil {
		return authenticationError
	}
	application.logger.Debug(authenticatedMessageConstant, zap.String(logFieldActorConstant, actor))

	forkService, forkServiceError := forks.NewService(forks.ServiceDependencies{
		Logger:            application.logger,
		RepositoryService: gitHubService,
		Sleeper:           application.sleeper,
		RenameDelay:       application.configuration.Fork.RenameDelay,
	})
	if forkServiceError != nil {
		return forkServiceError
	}

	request := forks.ForkRequest{
		Source:        source,
		TargetName:    strings.TrimSpace(application.targetNameFlagValue),
		DefaultBranch: strings.TrimSpace(application.branchFlagValue),
		CopyIssues:    application.copyIssuesFlagValue,
		DryRun:        application.dryRunFlagValue,
	}
	forkResult, forkError := forkService.EnsureFork(executionContext, actor, request)
	if forkError != nil {
		return forkError
	}

	summaryPrinter := ui.NewSummaryPrinter(command.OutOrStdout())
	if printError := summaryPrinter.PrintFork(forkResult, request.DryRun); printError != nil {
		return fmt.Errorf(summaryOutputErrorTemplateConstant, printError)
	}

	if !request.CopyIssues {
		application.logger.Debug(issueCopyDisabledMessageConstant)
		if printError := summaryPrinter.PrintIssuesNotRequested(); printError != nil {
			return fmt.Errorf(summaryOutputErrorTemplateConstant, printError)
		}
		return nil
	}

	replicator, replicatorError := issues.NewReplicator(issues.ReplicatorDependencies{
		Logger:             application.logger,
		IssueService:       gitHubService,
		Sleeper:            application.sleeper,
		PacingDelay:        application.configuration.Issues.PacingDelay,
		ProvenanceTemplate: application.configuration.Issues.ProvenanceTemplate,
	})
	if replicatorError != nil {
		return replicatorError
	}

	summary, replicationError := replicator.Replicate(executionContext, issues.ReplicationRequest{
		Source: source,
		Fork:   forkResult,
		DryRun: request.DryRun,
	})
	if printError := summaryPrinter.PrintIssues(source, summary); printError != nil && replicationError == nil {
		return fmt.Errorf(summaryOutputErrorTemplateConstant, printError)
	}
	return replicationError
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}
