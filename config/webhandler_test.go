package config

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, conf Config) string {
	t.Helper()
	configFile := createConfigFile(t, "")
	data, err := yaml.Marshal(conf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configFile, data, 0o644))
	return configFile
}

func TestConfigHandler_Get(t *testing.T) {
	conf := Default()
	conf.Globals.Brightness = 0.7
	conf.Render.InitialEffect = "Wander"
	handler := ConfigHandler(writeConfig(t, conf))

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var rc RuntimeConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rc))
	assert.Equal(t, 0.7, rc.Globals.Brightness)
	assert.Equal(t, "Wander", rc.Effect.InitialEffect)
	assert.Equal(t, conf.Input, rc.Input)
}

func TestConfigHandler_MethodNotAllowed(t *testing.T) {
	handler := ConfigHandler(writeConfig(t, Default()))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestConfigHandler_SetValidation(t *testing.T) {
	initial := Default()
	initial.Output.Device = "/dev/ttyS7"
	configFile := writeConfig(t, initial)

	tests := []struct {
		name         string
		payload      func() RuntimeConfig
		wantStatus   int
		wantErrorMsg string
		shouldModify bool
	}{
		{
			name: "Valid Update",
			payload: func() RuntimeConfig {
				c := initial.Runtime()
				c.Globals.Brightness = 0.9
				c.Effect.InitialEffect = "Wavy"
				return c
			},
			wantStatus:   http.StatusOK,
			shouldModify: true,
		},
		{
			name: "Brightness Too Large",
			payload: func() RuntimeConfig {
				c := initial.Runtime()
				c.Globals.Brightness = 3
				return c
			},
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "Globals.Brightness",
		},
		{
			name: "Unknown Effect",
			payload: func() RuntimeConfig {
				c := initial.Runtime()
				c.Effect.InitialEffect = "Strobe"
				return c
			},
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "is not one of",
		},
		{
			name: "Invalid Lookback",
			payload: func() RuntimeConfig {
				c := initial.Runtime()
				c.Input.Lookback = c.Input.HistoryLength
				return c
			},
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "Input.Lookback",
		},
	}

	handler := ConfigHandler(configFile)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := ReadConfig(configFile)
			require.NoError(t, err)

			payload := tt.payload()
			body, _ := json.Marshal(payload)
			req := httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBuffer(body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErrorMsg != "" {
				assert.Contains(t, w.Body.String(), tt.wantErrorMsg)
			}

			after, err := ReadConfig(configFile)
			require.NoError(t, err)
			if tt.shouldModify {
				rc := after.Runtime()
				assert.Equal(t, payload.Globals, rc.Globals)
				assert.Equal(t, payload.Input, rc.Input)
				assert.Equal(t, payload.Effect.InitialEffect, rc.Effect.InitialEffect)
			} else {
				assert.Equal(t, before, after, "file must not change on rejected updates")
			}
			assert.Equal(t, "/dev/ttyS7", after.Output.Device, "restart-only settings are preserved")
		})
	}
}

func TestConfigHandler_BadBody(t *testing.T) {
	handler := ConfigHandler(writeConfig(t, Default()))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfigHandler_MissingFile(t *testing.T) {
	cfile := filepath.Join(t.TempDir(), "gone.yml")
	handler := ConfigHandler(cfile)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoFileExists(t, cfile)
}
