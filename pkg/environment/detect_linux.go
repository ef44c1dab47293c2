//    Copyright 2018 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package environment

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const (
	deviceTreeModel = "/proc/device-tree/model"
)

// AutoDetectBridgeType returns the bridge type to use on this host:
// "rpi" on Raspberry Pi boards, "virtual" elsewhere.
func AutoDetectBridgeType(log zerolog.Logger) string {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		log.Warn().Err(err).Msg("Uname failed; using virtual bridge")
		return BridgeTypeVirtual
	}
	machine := utsString(name.Machine[:])
	model := ""
	if content, err := os.ReadFile(deviceTreeModel); err == nil {
		model = utsString(content)
	}
	bridgeType := bridgeTypeFor(machine, model)
	log.Debug().
		Str("machine", machine).
		Str("model", model).
		Str("bridge", bridgeType).
		Msg("Detected bridge type")
	return bridgeType
}

// bridgeTypeFor selects the bridge type for the given machine
// architecture and board model.
func bridgeTypeFor(machine, model string) string {
	if strings.Contains(strings.ToLower(model), "raspberry pi") {
		return BridgeTypeRaspberryPi
	}
	if model == "" && (strings.HasPrefix(machine, "arm") || machine == "aarch64") {
		return BridgeTypeRaspberryPi
	}
	return BridgeTypeVirtual
}

// utsString converts a NUL terminated byte array into a string.
func utsString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
