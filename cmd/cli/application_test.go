package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/ghfork/cmd/cli"
	"github.com/temirov/ghfork/internal/forks"
	"github.com/temirov/ghfork/internal/githubapi"
	"github.com/temirov/ghfork/internal/issues"
	"github.com/temirov/ghfork/internal/utils"
)

const (
	testSourceArgumentConstant         = "octocat/hello-world"
	testActorConstant                  = "forker"
	testConfigurationFileNameConstant  = "ghfork.yaml"
	testConfigurationContentConstant   = "github:\n  transport: api\n  api_base_url: https://ghe.example.com/api/v3/\nfork:\n  rename_delay: 250ms\n"
	testInvalidTransportConfigConstant = "github:\n  transport: carrier-pigeon\n"
)

type recordingGitHubService struct {
	currentUser     string
	existing        map[string]bool
	branches        []string
	sourceIssues    []issues.SourceIssue
	forkedSources   []string
	renames         []string
	settingsUpdates []forks.RepositorySettings
	createdLabels   []string
	createdIssues   []issues.NewIssue
	issueListings   int
}

func (service *recordingGitHubService) CurrentUser(context.Context) (string, error) {
	return service.currentUser, nil
}

func (service *recordingGitHubService) RepositoryExists(_ context.Context, repository forks.RepositoryRef) (bool, error) {
	return service.existing[repository.String()], nil
}

func (service *recordingGitHubService) ForkRepository(_ context.Context, source forks.RepositoryRef) error {
	service.forkedSources = append(service.forkedSources, source.String())
	return nil
}

func (service *recordingGitHubService) RenameRepository(_ context.Context, repository forks.RepositoryRef, newName string) error {
	service.renames = append(service.renames, repository.String()+"->"+newName)
	return nil
}

func (service *recordingGitHubService) UpdateRepositorySettings(_ context.Context, _ forks.RepositoryRef, settings forks.RepositorySettings) error {
	service.settingsUpdates = append(service.settingsUpdates, settings)
	return nil
}

func (service *recordingGitHubService) ListBranches(context.Context, forks.RepositoryRef) ([]string, error) {
	return service.branches, nil
}

func (service *recordingGitHubService) ListIssues(context.Context, forks.RepositoryRef) ([]issues.SourceIssue, error) {
	service.issueListings++
	return service.sourceIssues, nil
}

func (service *recordingGitHubService) GetLabel(_ context.Context, _ forks.RepositoryRef, name string) (issues.Label, error) {
	return issues.Label{Name: name, Color: "d73a4a"}, nil
}

func (service *recordingGitHubService) CreateLabel(_ context.Context, _ forks.RepositoryRef, label issues.Label) error {
	service.createdLabels = append(service.createdLabels, label.Name)
	return nil
}

func (service *recordingGitHubService) CreateIssue(_ context.Context, repository forks.RepositoryRef, issue issues.NewIssue) (issues.CreatedIssue, error) {
	service.createdIssues = append(service.createdIssues, issue)
	return issues.CreatedIssue{Number: len(service.createdIssues), HTMLURL: "https://github.com/" + repository.String() + "/issues/1"}, nil
}

type immediateSleeper struct {
	durations []time.Duration
}

func (sleeper *immediateSleeper) Sleep(_ context.Context, duration time.Duration) error {
	sleeper.durations = append(sleeper.durations, duration)
	return nil
}

type applicationHarness struct {
	application      *cli.Application
	output           *bytes.Buffer
	service          *recordingGitHubService
	sleeper          *immediateSleeper
	receivedSettings []cli.TransportSettings
}

func newApplicationHarness(testInstance *testing.T, service *recordingGitHubService) *applicationHarness {
	testInstance.Helper()
	testInstance.Setenv("HOME", testInstance.TempDir())

	harness := &applicationHarness{
		output:  &bytes.Buffer{},
		service: service,
		sleeper: &immediateSleeper{},
	}
	harness.application = cli.NewApplicationWithDependencies(cli.ApplicationDependencies{
		ServiceFactory: func(settings cli.TransportSettings) (cli.GitHubService, error) {
			harness.receivedSettings = append(harness.receivedSettings, settings)
			return harness.service, nil
		},
		Sleeper: harness.sleeper,
		LoggerFactory: func(utils.LogLevel, utils.LogFormat) (*zap.Logger, error) {
			return zap.NewNop(), nil
		},
	})
	harness.application.SetOutput(harness.output)
	return harness
}

func issueTitle(title string) *string {
	return &title
}

func TestApplicationForksRenamesAndCopiesIssues(testInstance *testing.T) {
	service := &recordingGitHubService{
		currentUser: testActorConstant,
		branches:    []string{"main", "develop"},
		sourceIssues: []issues.SourceIssue{
			{Number: 7, Title: issueTitle("Broken link"), Body: "See README", HTMLURL: "https://github.com/octocat/hello-world/issues/7", State: "open", Labels: []issues.Label{{Name: "bug"}}},
			{Number: 8, Title: issueTitle("Add docs"), State: "open", IsPullRequest: true},
		},
	}
	harness := newApplicationHarness(testInstance, service)

	executionError := harness.application.Execute(context.Background(), []string{
		testSourceArgumentConstant, "--target-name", "greetings", "--branch", "develop", "--copy-issues",
	})
	require.NoError(testInstance, executionError)

	require.Len(testInstance, harness.receivedSettings, 1)
	require.Equal(testInstance, cli.TransportCLI, harness.receivedSettings[0].Transport)
	require.Equal(testInstance, []string{testSourceArgumentConstant}, service.forkedSources)
	require.Equal(testInstance, []string{"forker/hello-world->greetings"}, service.renames)
	require.Equal(testInstance, []time.Duration{forks.DefaultRenameDelay, issues.DefaultPacingDelay}, harness.sleeper.durations)
	require.Equal(testInstance, []string{"bug"}, service.createdLabels)
	require.Len(testInstance, service.createdIssues, 1)
	require.Equal(testInstance, "Broken link", service.createdIssues[0].Title)
	require.True(testInstance, strings.HasPrefix(service.createdIssues[0].Body, "_Copied from octocat/hello-world#7: "))

	output := harness.output.String()
	require.Contains(testInstance, output, "Fork ready: forker/greetings")
	require.Contains(testInstance, output, "Renamed to greetings")
	require.Contains(testInstance, output, "Default branch updated")
	require.Contains(testInstance, output, "1 of 1 copied, 0 failed, 0 skipped")
}

func TestApplicationDryRunMakesNoChanges(testInstance *testing.T) {
	service := &recordingGitHubService{
		currentUser:  testActorConstant,
		sourceIssues: []issues.SourceIssue{{Number: 1, Title: issueTitle("Crash"), State: "open"}},
	}
	harness := newApplicationHarness(testInstance, service)

	executionError := harness.application.Execute(context.Background(), []string{"--dry-run", testSourceArgumentConstant, "--copy-issues", "yes"})
	require.NoError(testInstance, executionError)

	require.Empty(testInstance, service.forkedSources)
	require.Empty(testInstance, service.settingsUpdates)
	require.Empty(testInstance, service.createdIssues)

	output := harness.output.String()
	require.Contains(testInstance, output, "Dry run for forker/hello-world (no changes made)")
	require.Contains(testInstance, output, "Would fork octocat/hello-world as forker/hello-world")
	require.Contains(testInstance, output, "1 of 1 would be copied, 0 skipped")
}

func TestApplicationSkipsIssuesWhenNotRequested(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "flag omitted", arguments: []string{testSourceArgumentConstant}},
		{name: "flag disabled", arguments: []string{testSourceArgumentConstant, "--copy-issues", "no"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			service := &recordingGitHubService{
				currentUser:  testActorConstant,
				existing:     map[string]bool{"forker/hello-world": true},
				sourceIssues: []issues.SourceIssue{{Number: 1, Title: issueTitle("Crash"), State: "open"}},
			}
			harness := newApplicationHarness(testInstance, service)

			require.NoError(testInstance, harness.application.Execute(context.Background(), testCase.arguments))
			require.Empty(testInstance, service.forkedSources)
			require.Zero(testInstance, service.issueListings)
			require.Empty(testInstance, service.createdIssues)
			require.Contains(testInstance, harness.output.String(), "Fork already exists: forker/hello-world")
			require.Contains(testInstance, harness.output.String(), "Issues were not copied (--copy-issues not set)")
			require.NotContains(testInstance, harness.output.String(), "Issues from")
		})
	}
}

func TestApplicationRejectsInvalidInvocations(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		currentUser   string
		assertFailure func(testInstance *testing.T, executionError error)
	}{
		{
			name:      "missing repository",
			arguments: []string{},
			assertFailure: func(testInstance *testing.T, executionError error) {
				require.Error(testInstance, executionError)
			},
		},
		{
			name:      "malformed repository",
			arguments: []string{"hello-world"},
			assertFailure: func(testInstance *testing.T, executionError error) {
				var referenceError forks.RepositoryReferenceError
				require.ErrorAs(testInstance, executionError, &referenceError)
			},
		},
		{
			name:        "own repository",
			arguments:   []string{testSourceArgumentConstant},
			currentUser: "OctoCat",
			assertFailure: func(testInstance *testing.T, executionError error) {
				var selfForkError forks.SelfForkError
				require.ErrorAs(testInstance, executionError, &selfForkError)
			},
		},
		{
			name:      "unknown flag",
			arguments: []string{testSourceArgumentConstant, "--bogus"},
			assertFailure: func(testInstance *testing.T, executionError error) {
				require.ErrorContains(testInstance, executionError, "unknown flag: --bogus")
			},
		},
		{
			name:      "two repositories",
			arguments: []string{"a/b", "c/d"},
			assertFailure: func(testInstance *testing.T, executionError error) {
				require.ErrorContains(testInstance, executionError, "accepts 1 arg(s), received 2")
			},
		},
		{
			name:      "unknown transport flag value",
			arguments: []string{testSourceArgumentConstant, "--transport", "ssh"},
			assertFailure: func(testInstance *testing.T, executionError error) {
				require.ErrorContains(testInstance, executionError, "expected one of cli, api")
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			currentUser := testCase.currentUser
			if len(currentUser) == 0 {
				currentUser = testActorConstant
			}
			service := &recordingGitHubService{currentUser: currentUser}
			harness := newApplicationHarness(testInstance, service)

			testCase.assertFailure(testInstance, harness.application.Execute(context.Background(), testCase.arguments))
			require.Empty(testInstance, service.forkedSources)
			if testCase.currentUser == "" {
				require.Empty(testInstance, harness.receivedSettings)
			}
		})
	}
}

func TestApplicationHelpDescribesUsage(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, &recordingGitHubService{currentUser: testActorConstant})

	require.NoError(testInstance, harness.application.Execute(context.Background(), []string{"--help"}))
	require.Contains(testInstance, harness.output.String(), "ghfork <owner/name>")
	require.Contains(testInstance, harness.output.String(), "--copy-issues")
	require.Empty(testInstance, harness.receivedSettings)
}

func TestApplicationReadsConfigurationFile(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, &recordingGitHubService{currentUser: testActorConstant})
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o600))

	require.NoError(testInstance, harness.application.Execute(context.Background(), []string{
		testSourceArgumentConstant, "--config", configurationPath, "--target-name", "renamed",
	}))

	require.Len(testInstance, harness.receivedSettings, 1)
	require.Equal(testInstance, cli.TransportAPI, harness.receivedSettings[0].Transport)
	require.Equal(testInstance, "https://ghe.example.com/api/v3/", harness.receivedSettings[0].APIBaseURL)
	require.Equal(testInstance, []time.Duration{250 * time.Millisecond}, harness.sleeper.durations)
}

func TestApplicationTransportFlagOverridesConfiguration(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, &recordingGitHubService{currentUser: testActorConstant})
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o600))

	require.NoError(testInstance, harness.application.Execute(context.Background(), []string{
		testSourceArgumentConstant, "--config", configurationPath, "--transport", "CLI",
	}))

	require.Len(testInstance, harness.receivedSettings, 1)
	require.Equal(testInstance, cli.TransportCLI, harness.receivedSettings[0].Transport)
}

func TestApplicationRejectsUnknownConfiguredTransport(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, &recordingGitHubService{currentUser: testActorConstant})
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testInvalidTransportConfigConstant), 0o600))

	executionError := harness.application.Execute(context.Background(), []string{testSourceArgumentConstant, "--config", configurationPath})
	require.ErrorContains(testInstance, executionError, "carrier-pigeon")
	require.Empty(testInstance, harness.receivedSettings)
}

func TestApplicationAPITransportRequiresToken(testInstance *testing.T) {
	testInstance.Setenv("HOME", testInstance.TempDir())
	application := cli.NewApplicationWithDependencies(cli.ApplicationDependencies{
		EnvironmentLookup: func(string) (string, bool) { return "", false },
		LoggerFactory: func(utils.LogLevel, utils.LogFormat) (*zap.Logger, error) {
			return zap.NewNop(), nil
		},
	})
	application.SetOutput(&bytes.Buffer{})

	executionError := application.Execute(context.Background(), []string{testSourceArgumentConstant, "--transport", "api"})
	require.True(testInstance, errors.Is(executionError, githubapi.ErrTokenNotConfigured))
}

func TestEmbeddedDefaultConfigurationDecodes(testInstance *testing.T) {
	content, configurationType := cli.EmbeddedDefaultConfiguration()

	configurationReader := viper.New()
	configurationReader.SetConfigType(configurationType)
	require.NoError(testInstance, configurationReader.ReadConfig(bytes.NewReader(content)))

	var configuration cli.ApplicationConfiguration
	require.NoError(testInstance, configurationReader.Unmarshal(&configuration, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))))

	require.Equal(testInstance, string(utils.LogLevelInfo), configuration.Common.LogLevel)
	require.Equal(testInstance, string(utils.LogFormatConsole), configuration.Common.LogFormat)
	require.Equal(testInstance, cli.TransportCLI, configuration.GitHub.Transport)
	require.Equal(testInstance, githubapi.DefaultBaseURL, configuration.GitHub.APIBaseURL)
	require.Equal(testInstance, forks.DefaultRenameDelay, configuration.Fork.RenameDelay)
	require.Equal(testInstance, issues.DefaultPacingDelay, configuration.Issues.PacingDelay)
	require.Equal(testInstance, issues.DefaultProvenanceTemplate, configuration.Issues.ProvenanceTemplate)
}
