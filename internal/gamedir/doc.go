// Package gamedir describes the on-disk layout of an install and answers
// whether the game is currently installed.
package gamedir
