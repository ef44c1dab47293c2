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
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/binkynet/WallClock/pkg/service/bridge"
	"github.com/binkynet/WallClock/pkg/service/button"
	"github.com/binkynet/WallClock/pkg/service/leds"
	"github.com/binkynet/WallClock/pkg/service/timeclock"
	"github.com/binkynet/WallClock/pkg/ws2812"
)

// Config is the configuration file of the worker.
// It is read once at startup and not modified afterwards.
type Config struct {
	Network NetworkConfig `yaml:"network"`
	Button  ButtonConfig  `yaml:"button"`
	LEDs    LEDConfig     `yaml:"leds"`
	Client  ClientConfig  `yaml:"client"`
	Session SessionConfig `yaml:"session"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// ---- NETWORK ----

type NetworkConfig struct {
	// Wireless network the OS joins. The SSID is logged at link
	// bring-up, the password is only validated and never logged.
	WiFiSSID     string `yaml:"wifi_ssid"`
	WiFiPassword string `yaml:"wifi_password"`
	// Time clock API
	APIHost string `yaml:"api_host"`
	APIPort int    `yaml:"api_port"`
	APIPath string `yaml:"api_path"`
}

// ---- BUTTON ----

type ButtonConfig struct {
	// GPIO pin number (BCM) of the push-button
	Pin            int `yaml:"pin"`
	DebounceMs     int `yaml:"debounce_ms"`
	LongPressMs    int `yaml:"long_press_ms"`
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

// ---- LEDS ----

type LEDConfig struct {
	Brightness        int    `yaml:"brightness"`
	SPIDevice         string `yaml:"spi_device"`
	SPISpeedHz        int    `yaml:"spi_speed_hz"`
	RefreshIntervalMs int    `yaml:"refresh_interval_ms"`
}

// ---- CLIENT ----

type ClientConfig struct {
	TimeoutMs     int `yaml:"timeout_ms"`
	Retries       int `yaml:"retries"`
	RetryDelayMs  int `yaml:"retry_delay_ms"`
	LinkTimeoutMs int `yaml:"link_timeout_ms"`
}

// ---- SESSION ----

type SessionConfig struct {
	// Length of a workday in hours. Zero disables session tracking.
	WorkHours              int `yaml:"work_hours"`
	EnergyUpdateIntervalMs int `yaml:"energy_update_interval_ms"`
	// File the session is kept in across restarts. Empty keeps it in memory.
	StateFile string `yaml:"state_file"`
}

// ---- MQTT ----

type MQTTConfig struct {
	// Address (host:port) of the broker. Empty disables MQTT.
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	ForwardLogs bool   `yaml:"forward_logs"`
	// Minimum level of forwarded log messages
	ForwardLevel string `yaml:"forward_level"`
}

// Default returns the configuration used for settings
// missing from the configuration file.
func Default() Config {
	bc := button.DefaultConfig()
	lc := leds.DefaultConfig()
	tc := timeclock.DefaultConfig()
	rc := bridge.DefaultRaspberryPiConfig()
	return Config{
		Network: NetworkConfig{
			APIPort: tc.Port,
			APIPath: tc.Path,
		},
		Button: ButtonConfig{
			Pin:            rc.ButtonPin,
			DebounceMs:     ms(bc.Debounce),
			LongPressMs:    ms(bc.LongPress),
			PollIntervalMs: ms(bc.PollInterval),
		},
		LEDs: LEDConfig{
			Brightness:        int(lc.Brightness),
			SPIDevice:         rc.SPIDevice,
			SPISpeedHz:        int(rc.SPISpeedHz),
			RefreshIntervalMs: ms(lc.RefreshInterval),
		},
		Client: ClientConfig{
			TimeoutMs:     ms(tc.Timeout),
			Retries:       tc.Retries,
			RetryDelayMs:  ms(tc.RetryDelay),
			LinkTimeoutMs: ms(tc.LinkTimeout),
		},
		Session: SessionConfig{
			WorkHours:              int(timeclock.DefaultWorkDay / time.Hour),
			EnergyUpdateIntervalMs: ms(timeclock.DefaultEnergyUpdateInterval),
			StateFile:              ".wallclock/session.yaml",
		},
		MQTT: MQTTConfig{
			TopicPrefix:  "wallclock",
			ForwardLevel: "info",
		},
	}
}

// Load reads the configuration file at the given path.
// An empty path results in the default configuration.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "Failed to read config file '%s'", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "in '%s'", path)
	}
	return cfg, nil
}

// Parse the given YAML content on top of the default configuration.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "Failed to parse config")
	}
	return cfg, nil
}

// ButtonConfig returns the settings of the button state machine.
func (c Config) ButtonConfig() button.Config {
	return button.Config{
		Debounce:     duration(c.Button.DebounceMs),
		LongPress:    duration(c.Button.LongPressMs),
		PollInterval: duration(c.Button.PollIntervalMs),
	}
}

// LEDConfig returns the settings of the LED renderer.
func (c Config) LEDConfig() leds.Config {
	conf := leds.DefaultConfig()
	conf.Brightness = uint8(c.LEDs.Brightness)
	conf.RefreshInterval = duration(c.LEDs.RefreshIntervalMs)
	return conf
}

// ClientConfig returns the settings of the time clock client.
func (c Config) ClientConfig() timeclock.Config {
	conf := timeclock.DefaultConfig()
	conf.Host = c.Network.APIHost
	conf.Port = c.Network.APIPort
	conf.Path = c.Network.APIPath
	conf.Timeout = duration(c.Client.TimeoutMs)
	conf.Retries = c.Client.Retries
	conf.RetryDelay = duration(c.Client.RetryDelayMs)
	conf.LinkTimeout = duration(c.Client.LinkTimeoutMs)
	conf.NetworkName = c.Network.WiFiSSID
	conf.WorkDay = time.Duration(c.Session.WorkHours) * time.Hour
	conf.EnergyUpdateInterval = duration(c.Session.EnergyUpdateIntervalMs)
	return conf
}

// SessionStore returns the store of the clocked in/out session,
// or nil when the session is kept in memory.
func (c Config) SessionStore() timeclock.SessionStore {
	if c.Session.StateFile == "" {
		return nil
	}
	return timeclock.NewFileSessionStore(c.Session.StateFile)
}

// RaspberryPiConfig returns the settings of the Raspberry Pi bridge.
func (c Config) RaspberryPiConfig() bridge.RaspberryPiConfig {
	return bridge.RaspberryPiConfig{
		ButtonPin:  c.Button.Pin,
		SPIDevice:  c.LEDs.SPIDevice,
		SPISpeedHz: uint32(c.LEDs.SPISpeedHz),
		Timing:     ws2812.DefaultTiming,
	}
}

func ms(d time.Duration) int {
	return int(d / time.Millisecond)
}

func duration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
