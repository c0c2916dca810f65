// Package ui renders human-readable output: gh command progress for console logging and the
// final fork and issue summary.
package ui
