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

package button

import (
	"github.com/binkynet/WallClock/pkg/metrics"
)

const (
	subSystem = "button"
)

var (
	// Total number of presses ignored by debouncing
	pressesDebouncedTotal = metrics.MustRegisterCounter(subSystem,
		"presses_debounced_total",
		"Total number of presses ignored by debouncing")
	// Total number of emitted events per kind
	eventsTotal = metrics.MustRegisterCounterVec(subSystem,
		"events_total",
		"Total number of emitted button events",
		"kind")
	// Total number of pin read failures
	readErrorsTotal = metrics.MustRegisterCounter(subSystem,
		"read_errors_total",
		"Total number of button pin read failures")
)
