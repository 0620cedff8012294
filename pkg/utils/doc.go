// Package utils holds panic recovery helpers shared by the question
// answering path and the long-running commands.
package utils
