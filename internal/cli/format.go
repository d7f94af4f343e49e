package cli

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const tableColumnPadding = 2

// printer formats counts with thousands separators.
var printer = message.NewPrinter(language.English) //nolint:gochecknoglobals // Stateless formatter

const (
	bytesPerKB = 1024
	bytesPerMB = bytesPerKB * 1024
)

func resultCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return printer.Sprintf("%d results", n)
}

func formatBytes(n int64) string {
	switch {
	case n >= bytesPerMB:
		return printer.Sprintf("%.1f MB", float64(n)/bytesPerMB)
	case n >= bytesPerKB:
		return printer.Sprintf("%.1f KB", float64(n)/bytesPerKB)
	default:
		return printer.Sprintf("%d B", n)
	}
}
