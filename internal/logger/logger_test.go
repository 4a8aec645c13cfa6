package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleOnly(t *testing.T) {
	l, err := New(Config{Level: "debug", Console: true})
	require.NoError(t, err)
	defer l.Close()

	assert.Nil(t, l.file)
}

func TestNew_FileOutput(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "recall.log")

	l, err := New(Config{Level: "info", File: logPath})
	require.NoError(t, err)

	zl := l.Zerolog()
	zl.Info().Msg("hello")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	l, err := New(Config{Level: "nonsense", Console: true})
	require.NoError(t, err)
	defer l.Close()
}
