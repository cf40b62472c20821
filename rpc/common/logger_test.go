package common

import (
	"bytes"
	"os"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() { SetLogOutput(os.Stderr) })

	l := CreateLogger("server")
	l.SetLevel(logger.WARNING)

	l.Infof("hidden %d", 1)
	l.Debugf("hidden %d", 2)
	assert.Empty(t, buf.String())

	l.Warningf("disk at %d%%", 90)
	l.Errorf("boom")
	assert.Contains(t, buf.String(), "WARN  | server    | disk at 90%\n")
	assert.Contains(t, buf.String(), "ERROR | server    | boom\n")

	assert.PanicsWithValue(t, "fatal 7", func() { l.Panicf("fatal %d", 7) })
	assert.Contains(t, buf.String(), "PANIC | server    | fatal 7\n")
}

func TestParseLogLevel(t *testing.T) {
	for name, want := range map[string]logger.LogLevel{
		"debug": logger.DEBUG,
		"INFO":  logger.INFO,
		"warn":  logger.WARNING,
		"error": logger.ERROR,
	} {
		level, err := ParseLogLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, level, name)
	}

	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
	assert.Error(t, InitLoggers(ServerConfig{LogLevel: "loud"}))
}
