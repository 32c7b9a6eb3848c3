// Package reset reverts an install to its baseline by deleting every file
// under the game directory that the baseline manifest does not list.
//
// The manifest is a newline-delimited list of paths relative to the game
// directory's parent, e.g. "DRIVER2/config.ini". A reset never runs without
// a readable, non-empty manifest: with no baseline every file would count as
// extra. Directories are left in place; only files are removed.
package reset
