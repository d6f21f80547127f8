//go:build !darwin && !linux
// +build !darwin,!linux

package logger

import (
	"os"

	"golang.org/x/term"
)

// Windows terminals accept ANSI escapes once virtual terminal processing is
// on, which x/term does not toggle, so colors stay off here.
const SupportsColorEscapes = false

func GetTerminalInfo(file *os.File) (info TerminalInfo) {
	fd := int(file.Fd())
	if term.IsTerminal(fd) {
		info.IsTTY = true
		if width, _, err := term.GetSize(fd); err == nil {
			info.Width = width
		}
	}
	return
}

func writeStringWithColor(file *os.File, text string) {
	file.WriteString(text)
}
