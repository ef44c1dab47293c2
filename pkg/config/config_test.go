// Copyright 2024 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/WallClock/pkg/service/bridge"
)

const sampleConfig = `
network:
  wifi_ssid: office
  wifi_password: secret-passphrase
  api_host: clock.example.com
  api_port: 8080
  api_path: /api/v1/toggle
button:
  long_press_ms: 1500
leds:
  brightness: 64
client:
  retries: 5
  retry_delay_ms: 250
session:
  work_hours: 6
  state_file: /var/lib/wallclock/session.yaml
mqtt:
  broker: 10.0.0.5:1883
  topic_prefix: hall/clock
`

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 50, cfg.Button.DebounceMs)
	assert.Equal(t, 2000, cfg.Button.LongPressMs)
	assert.Equal(t, 50, cfg.Button.PollIntervalMs)
	assert.Equal(t, 128, cfg.LEDs.Brightness)
	assert.Equal(t, 10000, cfg.Client.TimeoutMs)
	assert.Equal(t, 3, cfg.Client.Retries)
	assert.Equal(t, 0, cfg.Client.RetryDelayMs)
	assert.Equal(t, 30000, cfg.Client.LinkTimeoutMs)
	assert.Equal(t, 9, cfg.Button.Pin)
	assert.Equal(t, 8, cfg.Session.WorkHours)
	assert.Equal(t, 300000, cfg.Session.EnergyUpdateIntervalMs)
	assert.NotNil(t, cfg.SessionStore())
	assert.Equal(t, "info", cfg.MQTT.ForwardLevel)

	// Only the API host is missing
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidConfig(err))
	assert.Contains(t, err.Error(), "api_host")
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "office", cfg.Network.WiFiSSID)
	assert.Equal(t, "clock.example.com", cfg.Network.APIHost)
	assert.Equal(t, 1500, cfg.Button.LongPressMs)
	// Defaults kept
	assert.Equal(t, 50, cfg.Button.DebounceMs)

	bc := cfg.ButtonConfig()
	assert.Equal(t, time.Millisecond*1500, bc.LongPress)
	assert.Equal(t, time.Millisecond*50, bc.Debounce)

	lc := cfg.LEDConfig()
	assert.Equal(t, uint8(64), lc.Brightness)
	assert.Equal(t, time.Second, lc.RefreshInterval)

	cc := cfg.ClientConfig()
	assert.Equal(t, "clock.example.com", cc.Host)
	assert.Equal(t, 8080, cc.Port)
	assert.Equal(t, "/api/v1/toggle", cc.Path)
	assert.Equal(t, 5, cc.Retries)
	assert.Equal(t, time.Millisecond*250, cc.RetryDelay)
	assert.Equal(t, time.Second*10, cc.Timeout)
	assert.Equal(t, "office", cc.NetworkName)
	assert.Equal(t, time.Hour*6, cc.WorkDay)
	assert.Equal(t, time.Minute*5, cc.EnergyUpdateInterval)
	assert.Equal(t, "/var/lib/wallclock/session.yaml", cfg.Session.StateFile)

	rc := cfg.RaspberryPiConfig()
	assert.Equal(t, bridge.DefaultRaspberryPiConfig(), rc)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("network: [unclosed"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallclock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hall/clock", cfg.MQTT.TopicPrefix)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	cfg.Network.APIPort = 0
	cfg.Network.APIPath = "toggle"
	cfg.LEDs.Brightness = 300
	cfg.Client.Retries = 0
	cfg.Button.LongPressMs = 10
	cfg.MQTT.TopicPrefix = ""
	cfg.MQTT.ForwardLevel = "loud"
	cfg.Session.WorkHours = 25
	cfg.Network.WiFiPassword = "short"

	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidConfig(err))
	msg := err.Error()
	for _, field := range []string{"api_port", "api_path", "brightness", "retries", "long_press_ms", "topic_prefix", "forward_level", "work_hours", "wifi_password"} {
		assert.Contains(t, msg, field)
	}
}

func TestValidateSingleError(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	cfg.Network.APIPath = "/api toggle"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, InvalidConfigError, errors.Cause(err))
	assert.False(t, IsInvalidConfig(nil))
	assert.False(t, IsInvalidConfig(errors.New("other")))
}

func TestSessionDisabled(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	cfg.Session.WorkHours = 0
	cfg.Session.StateFile = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Duration(0), cfg.ClientConfig().WorkDay)
	assert.Nil(t, cfg.SessionStore())

	cfg.Session.WorkHours = 8
	cfg.Session.EnergyUpdateIntervalMs = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "energy_update_interval_ms")
}

func TestValidateWiFiPassword(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	cfg.Network.WiFiSSID = ""

	err = cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, InvalidConfigError, errors.Cause(err))
	assert.Contains(t, err.Error(), "wifi_ssid")
	assert.NotContains(t, err.Error(), cfg.Network.WiFiPassword)
}
