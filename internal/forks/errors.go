package forks

import (
	"errors"
	"fmt"
)

const (
	repositoryReferenceErrorTemplateConstant  = "invalid repository %q: %s"
	authenticationErrorTemplateConstant       = "GitHub authentication failed: %v"
	authenticationMissingActorMessageConstant = "GitHub authentication failed: no authenticated user reported"
	selfForkErrorTemplateConstant             = "cannot fork %s: it is already owned by the authenticated user %s"
	forkCreationErrorTemplateConstant         = "failed to fork %s: %v"
	repositoryServiceMissingMessageConstant   = "repository service not configured"
	identityProviderMissingMessageConstant    = "identity provider not configured"
	actorRequiredMessageConstant              = "authenticated actor required"
)

var (
	// ErrRepositoryServiceNotConfigured indicates the Service was constructed without a RepositoryService.
	ErrRepositoryServiceNotConfigured = errors.New(repositoryServiceMissingMessageConstant)

	// ErrIdentityProviderNotConfigured indicates the Authenticator was constructed without an IdentityProvider.
	ErrIdentityProviderNotConfigured = errors.New(identityProviderMissingMessageConstant)

	// ErrActorRequired indicates EnsureFork was called without an authenticated actor.
	ErrActorRequired = errors.New(actorRequiredMessageConstant)
)

// RepositoryReferenceError reports a malformed owner/name identifier.
type RepositoryReferenceError struct {
	Input   string
	Message string
}

// Error describes the malformed identifier.
func (referenceError RepositoryReferenceError) Error() string {
	return fmt.Sprintf(repositoryReferenceErrorTemplateConstant, referenceError.Input, referenceError.Message)
}

// AuthenticationError reports that no authenticated identity could be established.
type AuthenticationError struct {
	Cause error
}

// Error describes the authentication failure.
func (authenticationError AuthenticationError) Error() string {
	if authenticationError.Cause == nil {
		return authenticationMissingActorMessageConstant
	}
	return fmt.Sprintf(authenticationErrorTemplateConstant, authenticationError.Cause)
}

// Unwrap exposes the underlying cause.
func (authenticationError AuthenticationError) Unwrap() error {
	return authenticationError.Cause
}

// SelfForkError reports an attempt to fork a repository the actor already owns.
type SelfForkError struct {
	Actor  string
	Source RepositoryRef
}

// Error describes the rejected fork.
func (selfForkError SelfForkError) Error() string {
	return fmt.Sprintf(selfForkErrorTemplateConstant, selfForkError.Source, selfForkError.Actor)
}

// ForkCreationError reports that the remote fork could not be created.
type ForkCreationError struct {
	Source RepositoryRef
	Cause  error
}

// Error describes the fork failure.
func (creationError ForkCreationError) Error() string {
	return fmt.Sprintf(forkCreationErrorTemplateConstant, creationError.Source, creationError.Cause)
}

// Unwrap exposes the underlying transport error.
func (creationError ForkCreationError) Unwrap() error {
	return creationError.Cause
}
