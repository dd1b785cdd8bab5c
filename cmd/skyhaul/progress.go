package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"skyhaul/internal/transfer"
)

// downloadProgress renders a terminal spinner over per-file transfer
// results. On non-terminal output it stays silent and the structured logs
// carry the detail instead.
type downloadProgress struct {
	bar *progressbar.ProgressBar
}

func newDownloadProgress(out io.Writer, label string) *downloadProgress {
	file, ok := out.(*os.File)
	if !ok || !isatty.IsTerminal(file.Fd()) {
		return &downloadProgress{}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &downloadProgress{bar: bar}
}

// OnResult is safe to call from concurrent download workers.
func (p *downloadProgress) OnResult(transfer.Result) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *downloadProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
