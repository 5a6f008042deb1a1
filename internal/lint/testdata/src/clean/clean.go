// Package clean has no directives, so nothing is reported.
package clean

// Greet is ordinary code.
func Greet() string { return "hi" }
