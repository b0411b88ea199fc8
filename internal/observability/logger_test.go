// File: internal/observability/logger_test.go
package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/lattice/internal/config"
)

// testSink is an in-memory WriteSyncer capturing console output.
type testSink struct {
	lines []byte
}

func (s *testSink) Write(p []byte) (int, error) {
	s.lines = append(s.lines, p...)
	return len(p), nil
}

func (s *testSink) Sync() error { return nil }

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	log := GetLogger()
	require.NotNil(t, log)
	// A no-op logger must swallow everything without panicking.
	log.Info("into the void")
}

func TestInitializeRespectsLevel(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &testSink{}
	Initialize(config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "lattice-test"}, sink)

	log := GetLogger()
	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible")

	out := string(sink.lines)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "lattice-test")
}

func TestInitializeOnlyOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &testSink{}
	second := &testSink{}
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "one"}, first)
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "two"}, second)

	GetLogger().Info("routed")
	assert.Contains(t, string(first.lines), "routed")
	assert.Empty(t, second.lines)
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &testSink{}
	Initialize(config.LoggerConfig{Level: "shouting", Format: "json", ServiceName: "lattice-test"}, sink)

	GetLogger().Info("still here")
	assert.Contains(t, string(sink.lines), "still here")
}

func TestSyncWithoutLoggerIsNoop(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	Sync()
}

var _ zapcore.WriteSyncer = (*testSink)(nil)
