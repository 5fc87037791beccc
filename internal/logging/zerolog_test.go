package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "invoice_id", 42)
	log.Warn(ctx, "wrn", "c", "x")
	log.Error(ctx, "err", "d", true)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "dbg", lines[0]["message"])
	assert.EqualValues(t, 1, lines[0]["a"])

	assert.Equal(t, "info", lines[1]["level"])
	assert.EqualValues(t, 42, lines[1]["invoice_id"])

	assert.Equal(t, "warn", lines[2]["level"])
	assert.Equal(t, "error", lines[3]["level"])
	assert.Equal(t, true, lines[3]["d"])
}

func TestZerologLogger_WithAndOddArgs(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf))

	child := log.With("module", "http")
	child.Info(context.Background(), "hello", "dangling")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "http", lines[0]["module"])
	assert.Equal(t, "dangling", lines[0]["!BADKEY"])
}

func TestNew_SelectsImplementation(t *testing.T) {
	var buf bytes.Buffer

	_, ok := New(FormatZerolog, &buf).(*ZerologLogger)
	assert.True(t, ok)

	_, ok = New(FormatJSON, &buf).(*SlogLogger)
	assert.True(t, ok)

	_, ok = New("unknown", &buf).(*SlogLogger)
	assert.True(t, ok)

	New(FormatText, &buf).Info(context.Background(), "plain", "k", "v")
	assert.Contains(t, buf.String(), "k=v")
}
