package ui

import (
	"io"
	"os"

	"github.com/gookit/color"
	"golang.org/x/term"
)

// Select returns the UI for the current environment. Status labels are only colored when stderr (where the log
// lines go) is a terminal, so redirected output stays free of escape sequences.
func Select(reportWriter io.Writer) UI {
	color.Enable = term.IsTerminal(int(os.Stderr.Fd()))
	return NewLoggerUI(reportWriter)
}
