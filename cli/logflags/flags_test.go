package logflags

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func parse(t *testing.T, args ...string) *Flags {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return &f
}

func TestDefaults(t *testing.T) {
	f := parse(t)
	assert.Equal(t, zapcore.InfoLevel, f.Level)
	assert.Equal(t, FileModeAppend, f.FileMode)
	require.NoError(t, f.Init())
}

func TestBadFileMode(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(nopWriter{})
	f.SetFlags(fs)
	assert.Error(t, fs.Parse([]string{"-log.filemode", "sideways"}))
}

func TestRotateNeedsPath(t *testing.T) {
	f := parse(t, "-log.filemode", "rotate")
	assert.EqualError(t, f.Init(), "-log.filemode=rotate requires -log.path")
}

func TestLogToFile(t *testing.T) {
	for _, mode := range []string{"append", "truncate", "rotate"} {
		path := filepath.Join(t.TempDir(), "esql.log")
		f := parse(t, "-log.level", "warn", "-log.path", path, "-log.filemode", mode)
		require.NoError(t, f.Init())
		logger, err := f.Open()
		require.NoError(t, err)
		logger.Info("dropped")
		logger.Warn("kept")
		require.NoError(t, logger.Sync())
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(b), `"msg":"kept"`, mode)
		assert.NotContains(t, string(b), "dropped", mode)
	}
}

type nopWriter struct{}

func (nopWriter) Write(b []byte) (int, error) { return len(b), nil }
