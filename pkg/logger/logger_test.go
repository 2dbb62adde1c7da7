package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerIsUsableBeforeInit(t *testing.T) {
	require.NotNil(t, Logger())
	require.NotPanics(t, func() {
		WithModule("test").Info("noop")
	})
}

func TestInit(t *testing.T) {
	require.NoError(t, Init("debug"))
	require.NotNil(t, Logger())

	// Garbage levels fall back to info instead of failing startup.
	require.NoError(t, Init("chatty"))
}
