// Package workflow drives install runs through the state machine in
// internal/stage.
//
// The Manager owns one session.Session, the observable state a presentation
// layer renders. It exposes four asynchronous operations: StartInstall
// extracts one or two disc images and optionally converts media and cleans
// up; StartMediaConversion converts an already-extracted tree; RunCleanup
// removes installer leftovers; ResetInstallation deletes everything the
// baseline manifest does not list. Only one operation runs at a time, both
// within the process and, through a file lock on the data directory, across
// processes.
//
// Extraction and reset failures halt the run in the Failed state with the
// session error set and the running flag cleared. Conversion failures of
// individual files are counted, never fatal; only a structural failure
// (the decoder cannot start, the media tree cannot be read) fails a
// conversion phase. Each run is recorded in run history when a store is
// configured and gets a plain-text transcript under <log_dir>/runs.
package workflow
