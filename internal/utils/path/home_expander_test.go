package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/ghfork/internal/utils/path"
)

const testHomeDirectoryConstant = "/home/forker"

func TestHomeExpanderExpand(testInstance *testing.T) {
	testCases := []struct {
		name         string
		input        string
		expectedPath string
	}{
		{name: "tilde only", input: "~", expectedPath: testHomeDirectoryConstant},
		{name: "tilde directory", input: "~/.ghfork", expectedPath: filepath.Join(testHomeDirectoryConstant, ".ghfork")},
		{name: "home variable", input: "$HOME/.ghfork", expectedPath: filepath.Join(testHomeDirectoryConstant, ".ghfork")},
		{name: "braced home variable", input: "${HOME}/.ghfork/config.yaml", expectedPath: filepath.Join(testHomeDirectoryConstant, ".ghfork", "config.yaml")},
		{name: "other user tilde untouched", input: "~someone/.ghfork", expectedPath: "~someone/.ghfork"},
		{name: "similar variable untouched", input: "$HOMEDIR/.ghfork", expectedPath: "$HOMEDIR/.ghfork"},
		{name: "relative path untouched", input: ".", expectedPath: "."},
		{name: "empty path", input: "", expectedPath: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
				return testHomeDirectoryConstant, nil
			})
			require.Equal(testInstance, testCase.expectedPath, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderLeavesPathWhenHomeUnknown(testInstance *testing.T) {
	providerCalls := 0
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		providerCalls++
		return "", errors.New("no home")
	})

	require.Equal(testInstance, "~/.ghfork", expander.Expand("~/.ghfork"))
	require.Equal(testInstance, "$HOME/.ghfork", expander.Expand("$HOME/.ghfork"))
	require.Equal(testInstance, 1, providerCalls)
}
