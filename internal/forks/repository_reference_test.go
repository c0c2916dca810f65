package forks_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghfork/internal/forks"
)

func TestParseRepositoryReference(testInstance *testing.T) {
	testCases := []struct {
		name              string
		input             string
		expectedReference forks.RepositoryRef
		expectError       bool
	}{
		{name: "owner_name", input: "octo/widgets", expectedReference: forks.RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "surrounding_whitespace", input: "  octo/widgets \n", expectedReference: forks.RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "https_url", input: "https://github.com/octo/widgets", expectedReference: forks.RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "https_url_git_suffix", input: "https://github.com/octo/widgets.git", expectedReference: forks.RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "https_url_trailing_slash", input: "https://github.com/octo/widgets/", expectedReference: forks.RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "scp_style_remote", input: "git@github.com:octo/widgets.git", expectedReference: forks.RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "ssh_url", input: "ssh://git@github.com/octo/widgets.git", expectedReference: forks.RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "empty", input: "   ", expectError: true},
		{name: "missing_separator", input: "widgets", expectError: true},
		{name: "missing_owner", input: "/widgets", expectError: true},
		{name: "missing_name", input: "octo/", expectError: true},
		{name: "extra_segment", input: "octo/widgets/extra", expectError: true},
		{name: "url_with_tree_path", input: "https://github.com/octo/widgets/tree/main", expectError: true},
		{name: "url_without_path", input: "https://github.com", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			reference, parseError := forks.ParseRepositoryReference(testCase.input)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				require.IsType(testInstance, forks.RepositoryReferenceError{}, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedReference, reference)
			require.Equal(testInstance, "octo/widgets", reference.String())
		})
	}
}

func TestRepositoryRefWithName(testInstance *testing.T) {
	reference := forks.RepositoryRef{Owner: "me", Name: "widgets"}

	renamed := reference.WithName("gadgets")

	require.Equal(testInstance, forks.RepositoryRef{Owner: "me", Name: "gadgets"}, renamed)
	require.Equal(testInstance, "widgets", reference.Name)
	require.False(testInstance, renamed.IsZero())
	require.True(testInstance, forks.RepositoryRef{}.IsZero())
}
