package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(testInstance *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "default first choice",
			defaultChoice:  "cli",
			choices:        []string{"cli", "api"},
			description:    "GitHub transport.",
			expectedOutput: "`<CLI|api>` GitHub transport.",
		},
		{
			name:           "default second choice",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			description:    "Log format.",
			expectedOutput: "`<structured|CONSOLE>` Log format.",
		},
		{
			name:           "empty description",
			defaultChoice:  "cli",
			choices:        []string{"cli", "api"},
			expectedOutput: "`<CLI|api>`",
		},
		{
			name:           "duplicates and whitespace ignored",
			defaultChoice:  "api",
			choices:        []string{" api ", "api", " cli "},
			description:    "Transport.",
			expectedOutput: "`<API|cli>` Transport.",
		},
		{
			name:           "no default highlighted",
			defaultChoice:  "",
			choices:        []string{"cli", "api"},
			description:    "Transport.",
			expectedOutput: "`<cli|api>` Transport.",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedOutput, FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestAddChoiceFlag(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectedValue string
		expectError   bool
	}{
		{name: "unset keeps empty default", arguments: []string{}, expectedValue: ""},
		{name: "accepts choice", arguments: []string{"--transport", "api"}, expectedValue: "api"},
		{name: "normalizes case", arguments: []string{"--transport=CLI"}, expectedValue: "cli"},
		{name: "rejects unknown", arguments: []string{"--transport", "ssh"}, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			command := &cobra.Command{}
			var transport string
			AddChoiceFlag(command.Flags(), &transport, "transport", "", []string{"cli", "api"}, "GitHub transport.")

			parseError := command.ParseFlags(testCase.arguments)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				require.Contains(testInstance, parseError.Error(), "expected one of cli, api")
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedValue, transport)
		})
	}
}
