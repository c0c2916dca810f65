// Package execshell runs external tools on behalf of ghfork.
//
// ShellExecutor wraps a CommandRunner (OSCommandRunner by default) and reports
// every invocation to a CommandEventObserver, while CommandMessageFormatter
// turns gh invocations into short human-readable lifecycle messages.
package execshell
