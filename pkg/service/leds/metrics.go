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

package leds

import (
	"github.com/binkynet/WallClock/pkg/metrics"
)

const (
	subSystem = "leds"
)

var (
	// Total number of commands handled per kind
	commandsTotal = metrics.MustRegisterCounterVec(subSystem,
		"commands_total",
		"Total number of LED commands handled",
		"kind")
	// Total number of frames sent to the strip
	framesTotal = metrics.MustRegisterCounter(subSystem,
		"frames_total",
		"Total number of frames sent to the strip")
	// Total number of frames the strip failed to receive
	transmitErrorsTotal = metrics.MustRegisterCounter(subSystem,
		"transmit_errors_total",
		"Total number of failed frame transmissions")
	// Total number of periodic refreshes
	refreshesTotal = metrics.MustRegisterCounter(subSystem,
		"refreshes_total",
		"Total number of periodic frame refreshes")
	// Current energy level
	energyLevelGauge = metrics.MustRegisterGauge(subSystem,
		"energy_level",
		"Current energy meter level")
)
