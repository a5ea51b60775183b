package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandlerMasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("connecting", "password", "hunter2", "Token", "abc", "address", "0xalice")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "***", record["password"])
	assert.Equal(t, "***", record["Token"], "matching is case insensitive")
	assert.Equal(t, "0xalice", record["address"], "ordinary attributes pass through")
}

func TestFanoutDeliversToEveryHandler(t *testing.T) {
	var first, second bytes.Buffer
	log := slog.New(newFanout(
		slog.NewJSONHandler(&first, nil),
		slog.NewJSONHandler(&second, &slog.HandlerOptions{Level: slog.LevelError}),
	))

	log.Info("only the first handler wants this")
	log.Error("both handlers want this")

	assert.Equal(t, 2, bytes.Count(first.Bytes(), []byte("\n")))
	assert.Equal(t, 1, bytes.Count(second.Bytes(), []byte("\n")))
}
