package common

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := SetupLogger(&LoggingOpts{JSON: true, Service: "registry", Version: "v1", Output: &buf})

	log.Debug("hidden")
	log.Info("visible", "registry", "0x01")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visible", line["msg"])
	assert.Equal(t, "registry", line["service"])
	assert.Equal(t, "v1", line["version"])
	assert.Equal(t, "0x01", line["registry"])
}

func TestSetupLoggerDebug(t *testing.T) {
	var buf bytes.Buffer
	log := SetupLogger(&LoggingOpts{Debug: true, Output: &buf})

	log.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.NotContains(t, buf.String(), "service=")
}
