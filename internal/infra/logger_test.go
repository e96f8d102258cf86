package infra

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		env, override string
		want          zerolog.Level
	}{
		{"production", "", zerolog.InfoLevel},
		{"development", "", zerolog.DebugLevel},
		{"production", "WARN", zerolog.WarnLevel},
		{"production", "nonsense", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		l := newLogger(&bytes.Buffer{}, tc.env, tc.override)
		assert.Equal(t, tc.want, l.GetLevel(), "%s/%s", tc.env, tc.override)
	}
}

func TestNewLoggerWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "production", "")
	l.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "engine", line["service"])
	assert.Equal(t, "hello", line["message"])
}
