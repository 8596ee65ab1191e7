package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tradehub/internal/config"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{level: "debug", want: zerolog.DebugLevel},
		{level: "WARN", want: zerolog.WarnLevel},
		{level: "", want: zerolog.InfoLevel},
		{level: "loud", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, closer := New(config.LoggingConfig{Level: tt.level, Output: "stderr"}, "test")
			defer closer.Close()
			require.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradehub.log")
	logger, closer := New(config.LoggingConfig{
		Level:     "info",
		Format:    "json",
		Output:    "file",
		File:      path,
		MaxSizeMB: 1,
	}, "tradehub-test")

	logger.Info().Str("k", "v").Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"service":"tradehub-test"`)
	require.Contains(t, string(data), `"message":"hello"`)
}
