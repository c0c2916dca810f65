// Package issues replicates the open issues of a source repository into its fork.
//
// A Replicator fetches one snapshot of open, non pull request issues, recreates
// labels on a best effort basis, and creates each issue with a provenance header.
// Per issue failures never abort the batch; they are accumulated in a Summary.
package issues
