package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ForService must hand out a usable logger even before Init runs, since
// package init code (registry, session) grabs loggers eagerly.
func TestForServiceBeforeInit(t *testing.T) {
	saved := structuredLogger
	structuredLogger = nil
	t.Cleanup(func() { structuredLogger = saved })

	logger := ForService("registry")
	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Info("experiment added", "name", "experiment_1")
		logger.Debug("session mutation", "revision", 1)
	})
}

func TestForServiceUsesStructuredLogger(t *testing.T) {
	saved := structuredLogger
	t.Cleanup(func() {
		structuredLogger = saved
		if saved != nil {
			slog.SetDefault(saved)
		}
	})

	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	ForService("session").Info("hello")
	assert.Contains(t, structured.String(), `"service":"session"`)
}
