// Package procexec launches external executables and interprets their output.
//
// Runner.Run starts a process with an argument vector and returns a Result
// carrying the exit code, captured stdout/stderr, and elapsed time. In capture
// mode two readers drain stdout and stderr concurrently into a bounded channel;
// a single writer forwards every chunk to a Sink (the install session log) and
// asks a pluggable Classifier whether a stdout chunk should nudge progress.
// Without capture the streams are buffered and stderr becomes the diagnostic
// text of a failed run.
//
// Launch problems are tagged services.ErrLaunch; non-zero exits are tagged
// services.ErrExternalTool.
package procexec
