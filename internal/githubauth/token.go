// Package githubauth resolves the GitHub token used by the REST transport.
package githubauth

import (
	"os"
	"strings"
)

// Environment variable names consulted for a GitHub token, in order of preference.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// EnvironmentLookup matches os.LookupEnv.
type EnvironmentLookup func(key string) (string, bool)

// Token is a resolved credential together with the variable it came from.
type Token struct {
	Value  string
	Source string
}

// TokenResolver finds the first non-blank token among the supported variables.
type TokenResolver struct {
	lookup EnvironmentLookup
}

// NewTokenResolver uses lookup, or the process environment when lookup is nil.
func NewTokenResolver(lookup EnvironmentLookup) TokenResolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return TokenResolver{lookup: lookup}
}

// Resolve returns the preferred token. Values are trimmed; blank values are skipped.
func (resolver TokenResolver) Resolve() (Token, bool) {
	lookup := resolver.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, variableName := range tokenPreference {
		value, present := lookup(variableName)
		if !present {
			continue
		}
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) > 0 {
			return Token{Value: trimmedValue, Source: variableName}, true
		}
	}
	return Token{}, false
}
