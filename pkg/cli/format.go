// Package cli provides shared formatting helpers for the netcollect CLI.
package cli

import (
	"os"
	"strings"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

// ansi wraps s in the given ANSI code. Returns s unchanged when NO_COLOR is set.
func ansi(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + "\033[0m"
}

// Green wraps s in ANSI green.
func Green(s string) string { return ansi("\033[32m", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return ansi("\033[33m", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return ansi("\033[31m", s) }

// Cyan wraps s in ANSI cyan.
func Cyan(s string) string { return ansi("\033[36m", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return ansi("\033[1m", s) }

// Dim wraps s in ANSI dim.
func Dim(s string) string { return ansi("\033[2m", s) }

// keywordColors maps the color names allowed in commands.yaml keyword
// definitions to ANSI sequences. Unknown names fall back to bold.
var keywordColors = map[string]string{
	"red":    "\033[31m",
	"green":  "\033[32m",
	"yellow": "\033[33m",
	"blue":   "\033[34m",
	"orange": "\033[33m",
	"cyan":   "\033[36m",
}

// Colorize wraps s in the ANSI color registered under name
// (case-insensitive). Unknown color names render bold.
func Colorize(name, s string) string {
	code, ok := keywordColors[strings.ToLower(name)]
	if !ok {
		code = "\033[1m"
	}
	return ansi(code, s)
}
