package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugRespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(false)
	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetVerbose(true)
	defer SetVerbose(false)
	Debug("shown %d", 2)
	Info("info")
	Warn("warn")
	Section("phase")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] shown 2")
	assert.Contains(t, out, "[INFO] info")
	assert.Contains(t, out, "[WARN] warn")
	assert.Contains(t, out, "=== phase ===")
}
