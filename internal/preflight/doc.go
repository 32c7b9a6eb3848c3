// Package preflight provides readiness checks for the tools and paths a
// pipeline run depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls Verify before starting an install or a
//     media conversion. A failing blocking check aborts the run before any
//     state changes, so a missing Java runtime never leaves a half-extracted
//     tree behind.
//   - The CLI "psxinstall status" command renders RunAll for display.
package preflight
