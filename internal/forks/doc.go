// Package forks ensures a fork of a source repository exists under the authenticated user.
//
// It parses repository references, verifies the acting identity, and drives the
// fork, rename, default branch, and issue tracking steps against a RepositoryService.
// Only fork creation is fatal; the remaining steps degrade into warnings.
package forks
