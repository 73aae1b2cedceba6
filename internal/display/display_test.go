package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, colors bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevColor := out, color
	SetOutput(&buf, colors)
	t.Cleanup(func() { out, color = prevOut, prevColor })
	return &buf
}

func TestStepWithoutColor(t *testing.T) {
	buf := capture(t, false)

	Step(1, 3, "Opening document")
	StepResult("pages", 12)
	KeyValue("Fingerprint", "abc")

	assert.Equal(t,
		"  [1/3] Opening document\n"+
			"        pages 12\n"+
			"    Fingerprint         abc\n",
		buf.String())
}

func TestColorCodes(t *testing.T) {
	buf := capture(t, true)

	ErrorMsg("broken")
	assert.Contains(t, buf.String(), red+"broken"+reset)
}

func TestPrintBanner(t *testing.T) {
	buf := capture(t, false)

	PrintBanner(WorkerInfo{Version: "1.2.0", Listen: ":8090", FontDir: "/fonts/", LogLevel: "info"})

	s := buf.String()
	assert.Contains(t, s, "pdfworker 1.2.0")
	assert.Contains(t, s, "(from host only)")
	assert.Contains(t, s, "/fonts\n")
	assert.Contains(t, s, "ws://localhost:8090/worker")
	assert.Contains(t, s, "http://localhost:8090/health")
	assert.NotContains(t, s, "\033[")

	buf.Reset()
	PrintBanner(WorkerInfo{Version: "dev"})
	assert.Contains(t, buf.String(), "stdio")
}
