// Package jpsxdec wraps the jPSXdec command-line decoder.
//
// jPSXdec ships as a Java archive, so every invocation is `java -jar <jar>`
// followed by one of four argument shapes: index a disc image, extract files
// from an index, decode indexed video, or decode indexed audio. The Client
// builds those argument vectors and delegates execution to a procexec.Runner;
// tests inject a stub runner to assert the exact arguments.
package jpsxdec
