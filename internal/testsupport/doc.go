// Package testsupport holds fixtures shared by package tests: temp-dir
// backed configuration, sized fixture files, and stub binaries on PATH.
package testsupport
