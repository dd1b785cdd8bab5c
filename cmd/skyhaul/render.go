package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// countPrinter groups digits so quota figures stay readable.
var countPrinter = message.NewPrinter(language.English)

func formatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

func formatHectares(h float64) string {
	return countPrinter.Sprintf("%.0f", h)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printBucket lists the members of one outcome bucket, or nothing when the
// bucket is empty.
func printBucket(out io.Writer, label string, entries []string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", label, len(entries))
	for _, entry := range entries {
		fmt.Fprintf(out, "  %s\n", entry)
	}
}
