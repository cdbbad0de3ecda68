package logger

import (
	"bytes"
	"io"
	"testing"

	"github.com/labstack/echo/v4"
	echolog "github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoLoggerAdapterRoutesLevels(t *testing.T) {
	t.Parallel()
	t.Attr("component", "logger")

	var buf bytes.Buffer
	var adapter echo.Logger = NewEchoLoggerAdapter(NewSlogLogger(&buf, LogLevelDebug, nil).Module("echo"))

	adapter.Debugf("routes=%d", 6)
	adapter.Print("server started")
	adapter.Warn("slow client")
	adapter.Errorj(echolog.JSON{"status": 500})

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "routes=6")
	assert.Contains(t, out, `msg="server started"`)
	assert.Contains(t, out, "module=echo")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="slow client"`)
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "status:500")
	assert.Equal(t, io.Discard, adapter.Output())
	assert.Equal(t, echolog.DEBUG, adapter.Level())
}

func TestEchoLoggerAdapterPanicsOnFatal(t *testing.T) {
	t.Parallel()
	t.Attr("component", "logger")

	var buf bytes.Buffer
	adapter := NewEchoLoggerAdapter(NewSlogLogger(&buf, LogLevelInfo, nil))

	require.PanicsWithValue(t, "echo: listener closed", func() { adapter.Fatalf("listener %s", "closed") })
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), `msg="listener closed"`)
}

func TestEchoLoggerAdapterNilLogger(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { NewEchoLoggerAdapter(nil).Info("dropped") })
}
