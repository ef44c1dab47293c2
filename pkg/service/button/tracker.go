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
	"time"
)

// Step is the outcome of a poll of a pressed button.
type Step uint8

const (
	// StepHeld means the button is still held; keep polling.
	StepHeld Step = iota
	// StepReleased means the gesture completed with an event.
	StepReleased
	// StepLongHeld means a long press has been emitted while the
	// button is still held; wait for release.
	StepLongHeld
)

// tracker classifies press gestures.
// It holds no I/O so it can be driven with synthetic timestamps.
type tracker struct {
	debounce   time.Duration
	longPress  time.Duration
	completed  time.Time
	pressStart time.Time
}

func newTracker(debounce, longPress time.Duration) *tracker {
	return &tracker{
		debounce:  debounce,
		longPress: longPress,
	}
}

// Press registers the start of a press at the given time.
// Returns false when the press follows the previous gesture
// too closely and must be ignored.
func (t *tracker) Press(now time.Time) bool {
	if !t.completed.IsZero() && now.Sub(t.completed) < t.debounce {
		return false
	}
	t.pressStart = now
	return true
}

// Poll classifies the current press, given the line state at the given time.
// The event is only valid when the step is not StepHeld.
func (t *tracker) Poll(now time.Time, released bool) (Event, Step) {
	elapsed := now.Sub(t.pressStart)
	if released {
		t.completed = now
		if elapsed >= t.longPress {
			return LongPress, StepReleased
		}
		return ShortPress, StepReleased
	}
	if elapsed >= t.longPress {
		return LongPress, StepLongHeld
	}
	return ShortPress, StepHeld
}

// Release registers the release of a button after a long press
// was emitted while held.
func (t *tracker) Release(now time.Time) {
	t.completed = now
}

// Elapsed returns the duration of the current press at the given time.
func (t *tracker) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.pressStart)
}
