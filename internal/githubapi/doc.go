// Package githubapi implements the fork and issue operations against the GitHub REST API.
//
// It is the token based alternative to the githubcli transport: requests go through
// go-github over a retryablehttp client that retries transient failures and rate limits.
package githubapi
