package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl, "пустая строка означает INFO")

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger_WritesFile(t *testing.T) {
	dir := t.TempDir()
	SetLogDir(dir)
	defer SetLogDir("")

	l, err := NewLogger("tanks")
	require.NoError(t, err)

	l.Debug("отладка %d", 42)
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, "tanks_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [tanks] отладка 42")
}

func TestManager_ReusesLoggers(t *testing.T) {
	lm := GetLoggerManager()
	a := lm.MustGetLogger("pool")
	b := lm.MustGetLogger("pool")
	assert.Same(t, a, b)

	require.NoError(t, lm.SetLogLevel("pool", WARN, ERROR))
	assert.Error(t, lm.SetLogLevel("missing-component", WARN, ERROR))
}

func TestManager_SetLevelReachesComponents(t *testing.T) {
	lm := GetLoggerManager()
	require.NoError(t, lm.CloseAll())
	defer func() {
		SetLevel(INFO)
		lm.CloseAll()
	}()

	before := GetScoreLogger()
	SetLevel(WARN)
	after := GetAPILogger()

	assert.Equal(t, WARN, before.minConsoleLevel, "уже созданный логгер")
	assert.Equal(t, WARN, after.minConsoleLevel, "логгер, созданный после SetLevel")
	assert.Same(t, before, GetComponentLogger("score"))
}

func TestManager_CloseAllFlushesComponentFiles(t *testing.T) {
	dir := t.TempDir()
	SetLogDir(dir)
	defer SetLogDir("")

	lm := GetLoggerManager()
	require.NoError(t, lm.CloseAll())

	GetGameLogger().Info("партия %d", 1)
	require.NoError(t, lm.CloseAll())

	files, err := filepath.Glob(filepath.Join(dir, "game_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] [game] партия 1")
}
