package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRequiredFlags(t *testing.T) {
	cases := map[string][]string{
		"batch without period": {"batch"},
		"settle without date":  {"settle", "--employee", "e-1", "--reason", "voluntary_resignation"},
		"legal load no file":   {"legal", "load"},
		"activate no year":     {"legal", "activate"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "required flag")
		})
	}
}

func TestInputIsValidatedBeforeConnecting(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := execute(t, "batch", "--period", "03/2025")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "DATABASE_URL")

	_, err = execute(t, "settle", "--employee", "e-1", "--date", "2025-13-01", "--reason", "voluntary_resignation")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--date")

	_, err = execute(t, "settle", "--employee", "e-1", "--date", "2025-06-30", "--reason", "fired")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "DATABASE_URL")
}

func TestMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENV_FILE", t.TempDir()+"/none.env")

	_, err := execute(t, "batch", "--period", "2025-03")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"effective": 2025}))
	assert.JSONEq(t, `{"effective":2025}`, buf.String())
}
