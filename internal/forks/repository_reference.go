package forks

import (
	"strings"
)

const (
	sshProtocolPrefixConstant       = "ssh://"
	httpsProtocolPrefixConstant     = "https://"
	httpProtocolPrefixConstant      = "http://"
	sshUserDelimiterConstant        = "@"
	sshPathDelimiterConstant        = ":"
	pathSeparatorConstant           = "/"
	gitSuffixConstant               = ".git"
	requiredValueMessageConstant    = "value required"
	invalidReferenceMessageConstant = "expected owner/name"
	missingOwnerMessageConstant     = "repository owner is empty"
	missingNameMessageConstant      = "repository name is empty"
	missingPathMessageConstant      = "repository path missing from url"
)

// RepositoryRef identifies a repository by owner and name.
type RepositoryRef struct {
	Owner string
	Name  string
}

// String renders the reference as owner/name.
func (reference RepositoryRef) String() string {
	return reference.Owner + pathSeparatorConstant + reference.Name
}

// WithName returns a copy of the reference under the same owner with a different name.
func (reference RepositoryRef) WithName(name string) RepositoryRef {
	return RepositoryRef{Owner: reference.Owner, Name: name}
}

// IsZero reports whether the reference carries no owner and no name.
func (reference RepositoryRef) IsZero() bool {
	return len(reference.Owner) == 0 && len(reference.Name) == 0
}

// ParseRepositoryReference converts owner/name, or a GitHub https or ssh remote URL, into a RepositoryRef.
func ParseRepositoryReference(raw string) (RepositoryRef, error) {
	trimmedInput := strings.TrimSpace(raw)
	if len(trimmedInput) == 0 {
		return RepositoryRef{}, RepositoryReferenceError{Input: raw, Message: requiredValueMessageConstant}
	}

	repositoryPath, pathError := extractRepositoryPath(trimmedInput)
	if pathError != nil {
		return RepositoryRef{}, RepositoryReferenceError{Input: raw, Message: pathError.Error()}
	}

	segments := strings.Split(repositoryPath, pathSeparatorConstant)
	if len(segments) != 2 {
		return RepositoryRef{}, RepositoryReferenceError{Input: raw, Message: invalidReferenceMessageConstant}
	}

	owner := strings.TrimSpace(segments[0])
	name := strings.TrimSpace(segments[1])
	if len(owner) == 0 {
		return RepositoryRef{}, RepositoryReferenceError{Input: raw, Message: missingOwnerMessageConstant}
	}
	if len(name) == 0 {
		return RepositoryRef{}, RepositoryReferenceError{Input: raw, Message: missingNameMessageConstant}
	}

	return RepositoryRef{Owner: owner, Name: name}, nil
}

func extractRepositoryPath(input string) (string, error) {
	switch {
	case strings.HasPrefix(input, sshProtocolPrefixConstant):
		return extractHostRelativePath(strings.TrimPrefix(input, sshProtocolPrefixConstant))
	case strings.HasPrefix(input, httpsProtocolPrefixConstant):
		return extractHostRelativePath(strings.TrimPrefix(input, httpsProtocolPrefixConstant))
	case strings.HasPrefix(input, httpProtocolPrefixConstant):
		return extractHostRelativePath(strings.TrimPrefix(input, httpProtocolPrefixConstant))
	case isSCPStyleRemote(input):
		pathStart := strings.Index(input, sshPathDelimiterConstant)
		return strings.TrimSuffix(input[pathStart+1:], gitSuffixConstant), nil
	default:
		return input, nil
	}
}

// extractHostRelativePath drops an optional user@ prefix and the host from host/owner/name(.git).
func extractHostRelativePath(remainder string) (string, error) {
	if userSplitIndex := strings.Index(remainder, sshUserDelimiterConstant); userSplitIndex >= 0 {
		remainder = remainder[userSplitIndex+1:]
	}
	slashIndex := strings.Index(remainder, pathSeparatorConstant)
	if slashIndex == -1 {
		return "", RepositoryReferenceError{Input: remainder, Message: missingPathMessageConstant}
	}
	repositoryPath := strings.TrimSuffix(remainder[slashIndex+1:], pathSeparatorConstant)
	return strings.TrimSuffix(repositoryPath, gitSuffixConstant), nil
}

// isSCPStyleRemote matches git@host:owner/name.git.
func isSCPStyleRemote(input string) bool {
	userIndex := strings.Index(input, sshUserDelimiterConstant)
	pathIndex := strings.Index(input, sshPathDelimiterConstant)
	slashIndex := strings.Index(input, pathSeparatorConstant)
	return userIndex > 0 && pathIndex > userIndex && (slashIndex == -1 || pathIndex < slashIndex)
}
