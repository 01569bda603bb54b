package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, Config{ServiceName: "otp-api", Environment: "test"})
	log.Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "otp-api", line["service"])
	assert.Equal(t, "test", line["env"])
	assert.Equal(t, "hello", line["msg"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, Config{Level: "warn"})
	log.Info("dropped")
	assert.Zero(t, buf.Len())
	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}
