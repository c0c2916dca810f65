package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghfork/internal/githubauth"
)

func TestTokenResolverPreference(testInstance *testing.T) {
	testCases := []struct {
		name          string
		environment   map[string]string
		expectedToken githubauth.Token
		expectedFound bool
	}{
		{
			name: "gh token wins",
			environment: map[string]string{
				githubauth.EnvGitHubCLIToken: "cli",
				githubauth.EnvGitHubToken:    "actions",
			},
			expectedToken: githubauth.Token{Value: "cli", Source: githubauth.EnvGitHubCLIToken},
			expectedFound: true,
		},
		{
			name: "blank values are skipped",
			environment: map[string]string{
				githubauth.EnvGitHubCLIToken: "   ",
				githubauth.EnvGitHubAPIToken: " api \n",
			},
			expectedToken: githubauth.Token{Value: "api", Source: githubauth.EnvGitHubAPIToken},
			expectedFound: true,
		},
		{
			name:        "nothing set",
			environment: map[string]string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			resolver := githubauth.NewTokenResolver(func(key string) (string, bool) {
				value, present := testCase.environment[key]
				return value, present
			})

			token, found := resolver.Resolve()
			require.Equal(testInstance, testCase.expectedFound, found)
			require.Equal(testInstance, testCase.expectedToken, token)
		})
	}
}

func TestTokenResolverDefaultsToProcessEnvironment(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvGitHubCLIToken, "")
	testInstance.Setenv(githubauth.EnvGitHubToken, "from-process")
	testInstance.Setenv(githubauth.EnvGitHubAPIToken, "")

	token, found := githubauth.NewTokenResolver(nil).Resolve()
	require.True(testInstance, found)
	require.Equal(testInstance, githubauth.Token{Value: "from-process", Source: githubauth.EnvGitHubToken}, token)
}
