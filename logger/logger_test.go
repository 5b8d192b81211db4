package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbose    bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
		{name: "Verbose console", jsonOutput: false, verbose: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			require.NoError(t, Initialize(tt.jsonOutput, tt.verbose))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.Equal(t, tt.verbose, Logger.Desugar().Core().Enabled(zap.DebugLevel))

			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestNamedBeforeInitialize(t *testing.T) {
	Logger = zap.NewNop().Sugar()
	l := Named("generator")
	require.NotNil(t, l)
	l.Debugw("no panic", FieldType, "Demo.Foo")
}
