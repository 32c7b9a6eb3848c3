// Package deps resolves the external binaries a run depends on.
package deps
