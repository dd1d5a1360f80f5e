package common

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name string
		opts LoggingOpts
	}{
		{"text", LoggingOpts{}},
		{"json debug", LoggingOpts{JSON: true, Debug: true}},
		{"tagged", LoggingOpts{Service: "proofstore", Version: Version}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := SetupLogger(&tt.opts)
			require.NotNil(t, log)
			require.Equal(t, tt.opts.Debug, log.Handler().Enabled(t.Context(), slog.LevelDebug))
		})
	}
}
