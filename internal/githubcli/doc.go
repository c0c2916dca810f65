// Package githubcli drives the GitHub CLI to fork repositories and copy issues.
//
// Client implements forks.RepositoryService and issues.IssueService on top of
// gh subcommands and gh api calls executed through execshell, so interactions
// with GitHub can be replaced by recording executors during testing.
package githubcli
