package logging

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restore(t *testing.T) {
	out, level, formatter := log.StandardLogger().Out, log.GetLevel(), log.StandardLogger().Formatter
	t.Cleanup(func() {
		log.SetOutput(out)
		log.SetLevel(level)
		log.SetFormatter(formatter)
	})
}

func TestTerminalDebugWritesFile(t *testing.T) {
	restore(t)
	file := filepath.Join(t.TempDir(), "xconsole.log")

	c, err := Setup(Options{Terminal: true, Debug: true, File: file})
	require.NoError(t, err)
	log.Debug("dispatch: done")
	require.NoError(t, c.Close())

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "dispatch: done")
}

func TestTerminalWithoutDebugDiscards(t *testing.T) {
	restore(t)
	_, err := Setup(Options{Terminal: true})
	require.NoError(t, err)
	assert.Equal(t, io.Discard, log.StandardLogger().Out)
}

func TestLevels(t *testing.T) {
	restore(t)

	_, err := Setup(Options{Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	_, err = Setup(Options{Level: "warn", Debug: true})
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	_, err = Setup(Options{Level: "loud"})
	assert.Error(t, err)
}
