// Package pathutils resolves home directory shorthands in configuration paths.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildePrefixConstant        = "~"
	homeVariablePrefixConstant = "$HOME"
	bracedHomePrefixConstant   = "${HOME}"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander rewrites a leading ~, $HOME, or ${HOME} to the resolved home directory.
// The provider is consulted at most once.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	resolveOnce           sync.Once
}

// NewHomeExpander uses os.UserHomeDir.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// Expand returns candidatePath unchanged when it has no home prefix or the home directory is unknown.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil {
		return candidatePath
	}

	for _, prefix := range []string{bracedHomePrefixConstant, homeVariablePrefixConstant, tildePrefixConstant} {
		remainder, hasPrefix := strings.CutPrefix(candidatePath, prefix)
		if !hasPrefix {
			continue
		}
		if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
			return candidatePath
		}

		homeDirectory := expander.resolveHomeDirectory()
		if len(homeDirectory) == 0 {
			return candidatePath
		}
		return filepath.Join(homeDirectory, remainder)
	}

	return candidatePath
}

func (expander *HomeExpander) resolveHomeDirectory() string {
	expander.resolveOnce.Do(func() {
		homeDirectory, homeDirectoryError := expander.homeDirectoryProvider()
		if homeDirectoryError == nil {
			expander.homeDirectory = homeDirectory
		}
	})
	return expander.homeDirectory
}
