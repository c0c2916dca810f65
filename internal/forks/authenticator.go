package forks

import (
	"context"
	"strings"
)

// IdentityProvider reports the login of the authenticated GitHub user.
type IdentityProvider interface {
	CurrentUser(executionContext context.Context) (string, error)
}

// Authenticator establishes the acting user and rejects forks of the actor's own repositories.
type Authenticator struct {
	identityProvider IdentityProvider
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(identityProvider IdentityProvider) (*Authenticator, error) {
	if identityProvider == nil {
		return nil, ErrIdentityProviderNotConfigured
	}
	return &Authenticator{identityProvider: identityProvider}, nil
}

// Authenticate returns the actor login, or AuthenticationError / SelfForkError.
func (authenticator *Authenticator) Authenticate(executionContext context.Context, source RepositoryRef) (string, error) {
	actor, identityError := authenticator.identityProvider.CurrentUser(executionContext)
	if identityError != nil {
		return "", AuthenticationError{Cause: identityError}
	}

	actor = strings.TrimSpace(actor)
	if len(actor) == 0 {
		return "", AuthenticationError{}
	}

	if strings.EqualFold(actor, source.Owner) {
		return "", SelfForkError{Actor: actor, Source: source}
	}

	return actor, nil
}
