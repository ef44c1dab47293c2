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

package timeclock

import (
	"github.com/binkynet/WallClock/pkg/metrics"
)

const (
	subSystem = "timeclock"
)

var (
	// Total number of connection attempts per result
	attemptsTotal = metrics.MustRegisterCounterVec(subSystem,
		"attempts_total",
		"Total number of toggle attempts",
		"result")
	// Total number of toggles per result
	togglesTotal = metrics.MustRegisterCounterVec(subSystem,
		"toggles_total",
		"Total number of toggle requests",
		"result")
	// Duration of toggles
	toggleDuration = metrics.MustRegisterHistogram(subSystem,
		"toggle_duration_seconds",
		"Duration of toggle requests (including retries)",
		[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30})
	// Network link state
	linkUpGauge = metrics.MustRegisterGauge(subSystem,
		"link_up",
		"1 when the network link is up, 0 otherwise")
	// Session state
	clockedInGauge = metrics.MustRegisterGauge(subSystem,
		"clocked_in",
		"1 when clocked in, 0 otherwise")
	// Energy meter level computed from the session
	energyLevelGauge = metrics.MustRegisterGauge(subSystem,
		"energy_level",
		"Energy meter level computed from the remaining workday")
)
