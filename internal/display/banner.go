package display

import (
	"fmt"
	"strings"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// WorkerInfo holds what the startup banner shows.
type WorkerInfo struct {
	Version string

	// Listen is the websocket address; empty means stdio.
	Listen string

	CMapDir  string
	FontDir  string
	LogLevel string
}

// PrintBanner prints the worker startup banner.
func PrintBanner(info WorkerInfo) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", paint("pdfworker "+info.Version, bold, brightCyan))
	fmt.Fprintf(out, "  %s\n", paint(rule, dim, cyan))
	fmt.Fprintln(out)

	fmt.Fprintf(out, "  %s\n", paint("Resources", bold, brightYellow))
	KeyValue("Character maps", orHost(info.CMapDir))
	KeyValue("Standard fonts", orHost(info.FontDir))
	KeyValue("Log level", info.LogLevel)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "  %s\n", paint("Transport", bold, brightYellow))
	if info.Listen == "" {
		KeyValue("Mode", "stdio (newline-delimited JSON)")
	} else {
		host := info.Listen
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		KeyValue("Mode", "websocket")
		printEndpoint("Worker", "WS ", "ws://"+host+"/worker", brightMagenta)
		printEndpoint("Health", "GET", "http://"+host+"/health", brightGreen)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", paint(rule, dim, cyan))
	fmt.Fprintln(out)
}

func printEndpoint(label, method, url, urlColor string) {
	fmt.Fprintf(out, "    %s %s %s\n",
		paint(padRight(label, 8), dim),
		paint(fmt.Sprintf("%-5s", method), bold, brightWhite),
		paint(url, urlColor),
	)
}

func orHost(dir string) string {
	if dir == "" {
		return "(from host only)"
	}
	return strings.TrimRight(dir, "/")
}
