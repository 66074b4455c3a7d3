package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/platform/logger"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name string
		opts logger.Options
	}{
		{"json info", logger.Options{Level: "info"}},
		{"pretty debug", logger.Options{Level: "debug", Pretty: true}},
		{"empty level defaults to info", logger.Options{}},
		{"invalid level falls back to info", logger.Options{Level: "loud"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, err := logger.Setup(tc.opts)
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.Same(t, slog.Default(), log)
		})
	}
}

func TestFromContext(t *testing.T) {
	// Without a stored logger, the default is returned.
	assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
	assert.Same(t, slog.Default(), logger.FromContext(nil)) //nolint:staticcheck

	scoped := slog.Default().With("request_id", "abc123")
	ctx := logger.WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, logger.FromContext(ctx))
}
