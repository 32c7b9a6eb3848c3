// Package history records pipeline runs in SQLite.
//
// Each install, conversion, cleanup, or reset gets one row keyed by its run
// id, written when the run starts and updated when it reaches a terminal
// state. Rows carry conversion counts and deletion totals so `psxinstall
// history` can show what each run did.
//
// History is an audit trail only. Nothing reads it back to resume a run; an
// interrupted run stays in its last active state and a new run starts from
// the beginning. Schema changes bump schemaVersion in schema.go; users
// delete the database to adopt the new schema.
package history
