// Package main hosts the psxinstall CLI entrypoint and command graph.
//
// Commands load configuration once, build a workflow manager around the
// jPSXdec decoder, and render the manager's session as a progress bar or as
// plain status lines when output is not a terminal. Run history and
// dependency status are rendered as tables.
//
// Keep this package thin: behavior belongs in the internal packages and is
// surfaced here through flags and output formatting.
package main
