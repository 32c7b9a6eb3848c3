// Package session holds the observable state of one install run.
//
// A Session is the only object the presentation layer reads: a running flag,
// a progress fraction, a status line, an optional error, the bounded session
// log, and whether the game is currently installed. Pipeline workers mutate it
// through a handful of methods; observers subscribe to coalesced snapshots on
// their own goroutine instead of polling shared globals.
//
// Session also implements procexec.Sink so decoder output streams straight
// into the log.
package session
