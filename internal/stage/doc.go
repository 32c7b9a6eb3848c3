// Package stage defines the install state machine shared by the workflow
// manager, run history, and status output.
package stage
