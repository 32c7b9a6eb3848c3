// Package convert turns the game's streamed media into standard containers.
//
// Two media classes are handled. Primary media (FMV cutscenes, .STR) is
// converted by a bounded pool of workers: each job indexes the stream, decodes
// video to MJPEG AVI and audio to WAV, then removes the index, the source and
// any WAV byproducts that share the source's base name. Secondary media (XA
// audio, .XA) is converted one file at a time: index, decode audio, remove
// index and source.
//
// Both phases are best effort per file. A job that fails is logged and
// counted; it never aborts its siblings or the phase. Only a structural
// problem (an unreadable media directory or a decoder that cannot be
// launched at all) fails the phase.
package convert
