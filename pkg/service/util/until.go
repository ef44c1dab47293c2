// Copyright 2021 Ewout Prangsma
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

package util

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/binkynet/WallClock/pkg/metrics"
)

const (
	minRestartDelay = time.Millisecond * 10
	maxRestartDelay = time.Second * 5
	restartFactor   = 1.5
)

var (
	// Total number of task failures per task
	taskFailuresTotal = metrics.MustRegisterCounterVec("util",
		"task_failures_total",
		"Total number of failed task runs",
		"task")
)

// UntilCanceled continues to call the given callback
// until the given context is canceled.
// Failures are logged and delay the next call with an increasing backoff.
func UntilCanceled(ctx context.Context, log zerolog.Logger, description string, cb func() error) error {
	delay := minRestartDelay
	for {
		if ctx.Err() != nil {
			// Context canceled
			return nil
		}
		if err := cb(); err != nil {
			taskFailuresTotal.WithLabelValues(description).Inc()
			log.Warn().Err(err).Dur("delay", delay).Msgf("%s failed", description)
			delay = nextDelay(delay)
		} else {
			delay = minRestartDelay
		}
		select {
		case <-ctx.Done():
			// Context canceled
			log.Info().Msgf("Stopping %s; context canceled", description)
			return nil
		case <-time.After(delay):
			// Continue
		}
	}
}

// nextDelay returns the backoff delay following the given delay.
func nextDelay(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * restartFactor)
	if delay > maxRestartDelay {
		return maxRestartDelay
	}
	return delay
}
