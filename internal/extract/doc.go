// Package extract pulls the raw file tree out of a PSX disc image.
//
// Each disc goes through two decoder passes, both streaming progress into
// the session: build an index of the image, then extract every file the index
// lists into the data directory. The transient index is removed afterwards.
// A failed index pass is reported as an invalid disc image; a failed extract
// pass as an extraction failure. Both name the disc label.
package extract
