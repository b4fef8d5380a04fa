package shellcmd

import (
	"runtime"
	"strings"
)

// Platform selects the shell dialect used to quote prompt text.
type Platform int

const (
	// POSIX covers bash, zsh and sh.
	POSIX Platform = iota
	// Windows is PowerShell (pwsh or powershell.exe).
	Windows
)

// Detect returns the Platform for the running OS.
func Detect() Platform {
	return ForGOOS(runtime.GOOS)
}

// ForGOOS maps a GOOS value to a Platform.
func ForGOOS(goos string) Platform {
	if goos == "windows" {
		return Windows
	}
	return POSIX
}

func (p Platform) String() string {
	if p == Windows {
		return "windows"
	}
	return "posix"
}

// escapes maps each special character to its replacement inside a double-quoted string.
var escapes = map[Platform]map[rune]string{
	POSIX: {
		'\\': `\\`,
		'"':  `\"`,
		'$':  `\$`,
		'`':  "\\`",
		'!':  `"'!'"`, // history expansion is not suppressed by double quotes
		'\r': " ",
		'\n': " ",
	},
	Windows: {
		'`':  "``",
		'"':  "`\"",
		'$':  "`$",
		'\r': " ",
		'\n': " ",
	},
}

// Escape neutralizes characters that could end the quoted string or expand inside it.
func (p Platform) Escape(s string) string {
	table := escapes[p]
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if rep, ok := table[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Quote escapes s and wraps it in double quotes.
func (p Platform) Quote(s string) string {
	return `"` + p.Escape(s) + `"`
}

// LineTerminator is what a user pressing Enter sends to the PTY.
func (p Platform) LineTerminator() string {
	return "\r"
}
