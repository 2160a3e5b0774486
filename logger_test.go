package tirta

import "testing"

func TestSimpleLoggerLevels(t *testing.T) {
	logger := NewSimpleLogger()
	// Levels must not panic with assorted key/value shapes.
	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "count", 3, "mode", ModeServer)
	logger.Warn("warn message")
	logger.Error("error message", "err", errIntentional)
}

func TestSimpleLoggerOddKeyValues(t *testing.T) {
	logger := NewSimpleLogger()
	// A dangling key must be tolerated, not dropped silently or panic.
	logger.Info("message", "orphan")
}

func TestSimpleLoggerReusability(t *testing.T) {
	logger := NewSimpleLogger()
	for i := 0; i < 10; i++ {
		logger.Debug("iteration", "i", i)
	}
}
