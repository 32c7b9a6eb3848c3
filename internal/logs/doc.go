// Package logs reads the per-run transcripts written under <log_dir>/runs.
//
// Transcripts are located by run ID prefix or recency, and Tail returns the
// last N lines or the lines appended after a byte offset. Follow mode polls
// until new lines arrive or the wait expires, so a second terminal can watch
// a run driven by another process.
package logs
