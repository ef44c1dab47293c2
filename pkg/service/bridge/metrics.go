//    Copyright 2017 Ewout Prangsma
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

package bridge

import (
	"github.com/pkg/errors"

	"github.com/binkynet/WallClock/pkg/metrics"
)

const (
	subSystem = "bridge"
)

var (
	maskAny = errors.WithStack

	// Total number of failed input pin reads
	inputReadErrorsTotal = metrics.MustRegisterCounter(subSystem,
		"input_read_errors_total",
		"Total number of failed input pin reads")
	// Total number of LED strip bursts sent
	stripTransmitTotal = metrics.MustRegisterCounter(subSystem,
		"strip_transmit_total",
		"Total number of LED strip bursts sent")
	// Total number of LED strip bursts that failed
	stripTransmitErrorsTotal = metrics.MustRegisterCounter(subSystem,
		"strip_transmit_errors_total",
		"Total number of LED strip bursts that failed")
	// Number of bytes in the last LED strip burst
	stripBurstBytes = metrics.MustRegisterGauge(subSystem,
		"strip_burst_bytes",
		"Number of bytes in the last LED strip burst")
)
