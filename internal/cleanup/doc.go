// Package cleanup removes the files an install no longer needs once media
// conversion has finished: helper scripts, decoder settings, leftover disc
// images and executables, logs, and stray index files.
//
// The catalog is fixed. Each rule is a path relative to the data directory,
// either literal or with `*` wildcards in its last element. Glob rules match
// entries of the rule's directory only; they never recurse. Removal failures
// are logged per file and never stop the batch, so running the engine twice
// is safe and the second run reports nothing removed.
package cleanup
