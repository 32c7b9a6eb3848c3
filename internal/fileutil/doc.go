// Package fileutil provides counted file removal shared by the cleanup and
// reset engines.
package fileutil
