package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func readLogs(t *testing.T, dir string) string {
	t.Helper()
	name := time.Now().Format("2006-01-02") + "_chatbox.log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestInitialize_DebugModeWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Initialize(Options{DebugMode: true, Level: "debug", Dir: dir}))
	t.Cleanup(CloseAll)

	Session("opened widget gen=%d", 3)
	TransportDebug("GET %s", "/tenant/chat/my-sessions")
	CloseAll()

	out := readLogs(t, dir)
	assert.Contains(t, out, "opened widget gen=3")
	assert.Contains(t, out, "/tenant/chat/my-sessions")
	assert.Contains(t, out, "session")
}

func TestInitialize_ProductionModeIsSilent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Initialize(Options{DebugMode: false, Dir: dir}))
	t.Cleanup(CloseAll)

	Session("should not be written")

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "logs dir must not be created when debug mode is off")
	assert.False(t, IsDebugMode())
	assert.False(t, IsCategoryEnabled(CategorySession))
}

func TestInitialize_RequiresDirInDebugMode(t *testing.T) {
	err := Initialize(Options{DebugMode: true})
	require.Error(t, err)
	t.Cleanup(CloseAll)
}

func TestCategoryToggles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(Options{
		DebugMode:  true,
		Level:      "info",
		Dir:        dir,
		Categories: map[string]bool{"transport": false},
	}))
	t.Cleanup(CloseAll)

	assert.True(t, IsCategoryEnabled(CategorySession))
	assert.False(t, IsCategoryEnabled(CategoryTransport))
	assert.True(t, IsCategoryEnabled(CategoryUI), "unspecified categories default to enabled")

	Transport("hidden transport line")
	Session("visible session line")
	CloseAll()

	out := readLogs(t, dir)
	assert.NotContains(t, out, "hidden transport line")
	assert.Contains(t, out, "visible session line")
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(Options{DebugMode: true, Level: "warning", Dir: dir}))
	t.Cleanup(CloseAll)

	SessionDebug("debug line")
	Session("info line")
	SessionWarn("warn line")
	CloseAll()

	out := readLogs(t, dir)
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
}

func TestUseLogger_RoutesCategories(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	UseLogger(zap.New(core))
	t.Cleanup(func() { UseLogger(nil) })

	Get(CategoryAuth).With("key", "auth-storage").Warn("token missing")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "token missing", entries[0].Message)
	assert.Equal(t, "auth", entries[0].LoggerName)
	assert.Equal(t, "auth-storage", entries[0].ContextMap()["key"])
}

func TestTimer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	UseLogger(zap.New(core))
	t.Cleanup(func() { UseLogger(nil) })

	timer := StartTimer(CategoryTransport, "FetchHistory")
	elapsed := timer.StopWithThreshold(time.Hour)
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))

	entries := logs.FilterMessageSnippet("FetchHistory").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.True(t, strings.HasPrefix(entries[0].Message, "FetchHistory completed"))
}
