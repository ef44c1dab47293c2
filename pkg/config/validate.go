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
	"strings"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	// InvalidConfigError is the cause of all validation errors.
	InvalidConfigError = errors.New("invalid config")
)

// Validate checks the configuration for errors.
// All problems found are returned together.
func (c Config) Validate() error {
	var ae aerr.AggregateError
	invalid := func(format string, args ...interface{}) {
		ae.Add(errors.Wrapf(InvalidConfigError, format, args...))
	}

	// Network
	if c.Network.APIHost == "" {
		invalid("network.api_host must be set")
	}
	if c.Network.APIPort < 1 || c.Network.APIPort > 65535 {
		invalid("network.api_port %d out of range", c.Network.APIPort)
	}
	if !strings.HasPrefix(c.Network.APIPath, "/") {
		invalid("network.api_path '%s' must start with '/'", c.Network.APIPath)
	}
	if strings.ContainsAny(c.Network.APIPath+c.Network.APIHost, " \r\n") {
		invalid("network.api_host and network.api_path must not contain whitespace")
	}

	if c.Network.WiFiSSID == "" && c.Network.WiFiPassword != "" {
		invalid("network.wifi_password set without network.wifi_ssid")
	}
	if l := len(c.Network.WiFiPassword); l != 0 && (l < 8 || l > 63) {
		invalid("network.wifi_password must have 8-63 characters")
	}

	// Button
	if c.Button.Pin < 0 {
		invalid("button.pin %d must not be negative", c.Button.Pin)
	}
	if c.Button.DebounceMs < 0 {
		invalid("button.debounce_ms must not be negative")
	}
	if c.Button.PollIntervalMs <= 0 {
		invalid("button.poll_interval_ms must be positive")
	}
	if c.Button.LongPressMs <= c.Button.DebounceMs {
		invalid("button.long_press_ms (%d) must exceed button.debounce_ms (%d)", c.Button.LongPressMs, c.Button.DebounceMs)
	}

	// LEDs
	if c.LEDs.Brightness < 0 || c.LEDs.Brightness > 255 {
		invalid("leds.brightness %d out of range 0-255", c.LEDs.Brightness)
	}
	if c.LEDs.SPISpeedHz <= 0 {
		invalid("leds.spi_speed_hz must be positive")
	}
	if c.LEDs.RefreshIntervalMs < 0 {
		invalid("leds.refresh_interval_ms must not be negative")
	}

	// Client
	if c.Client.TimeoutMs <= 0 {
		invalid("client.timeout_ms must be positive")
	}
	if c.Client.Retries < 1 {
		invalid("client.retries must be at least 1")
	}
	if c.Client.RetryDelayMs < 0 {
		invalid("client.retry_delay_ms must not be negative")
	}
	if c.Client.LinkTimeoutMs <= 0 {
		invalid("client.link_timeout_ms must be positive")
	}

	// Session
	if c.Session.WorkHours < 0 || c.Session.WorkHours > 24 {
		invalid("session.work_hours %d out of range 0-24", c.Session.WorkHours)
	}
	if c.Session.WorkHours > 0 && c.Session.EnergyUpdateIntervalMs <= 0 {
		invalid("session.energy_update_interval_ms must be positive")
	}

	// MQTT
	if c.MQTT.Broker != "" && strings.Trim(c.MQTT.TopicPrefix, "/") == "" {
		invalid("mqtt.topic_prefix must be set when mqtt.broker is set")
	}
	if _, err := zerolog.ParseLevel(c.MQTT.ForwardLevel); err != nil {
		invalid("mqtt.forward_level '%s' is not a log level", c.MQTT.ForwardLevel)
	}
	return ae.AsError()
}

// IsInvalidConfig returns true if the given error was returned by Validate.
func IsInvalidConfig(err error) bool {
	switch errors.Cause(err).(type) {
	case *aerr.AggregateError:
		return true
	}
	return errors.Cause(err) == InvalidConfigError
}
