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

package service

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/binkynet/WallClock/pkg/service/button"
	"github.com/binkynet/WallClock/pkg/service/leds"
	"github.com/binkynet/WallClock/pkg/service/timeclock"
)

func TestParseCommand(t *testing.T) {
	for _, cmd := range []string{"press", "short", "Short-Press", " toggle\n"} {
		ev, err := ParseCommand(cmd)
		assert.NoError(t, err, cmd)
		assert.Equal(t, button.ShortPress, ev, cmd)
	}
	for _, cmd := range []string{"long", "LONG-PRESS", "rainbow"} {
		ev, err := ParseCommand(cmd)
		assert.NoError(t, err, cmd)
		assert.Equal(t, button.LongPress, ev, cmd)
	}
	_, err := ParseCommand("reboot")
	assert.Equal(t, InvalidCommandError, errors.Cause(err))
}

func TestStatusChanged(t *testing.T) {
	p := newMQTTPublisher(zerolog.Nop(), newFakeMQTT(), newHub(), func(button.Event) {})

	msg, changed := p.statusChanged(FrameUpdate{Seq: 1, Frame: frameWith(leds.Blue, 0)})
	assert.True(t, changed)
	assert.Equal(t, statusMessage{Status: "blue"}, msg)

	// Same status again
	_, changed = p.statusChanged(FrameUpdate{Seq: 2, Frame: frameWith(leds.Blue, 0)})
	assert.False(t, changed)

	// Animation frames are skipped
	_, changed = p.statusChanged(FrameUpdate{Seq: 3, Frame: leds.RainbowFrame(0, 64)})
	assert.False(t, changed)

	// Stale frames are skipped
	_, changed = p.statusChanged(FrameUpdate{Seq: 3, Frame: frameWith(leds.Red, 0)})
	assert.False(t, changed)

	msg, changed = p.statusChanged(FrameUpdate{Seq: 4, Frame: frameWith(leds.Green, 5)})
	assert.True(t, changed)
	assert.Equal(t, statusMessage{Status: "green", EnergyLevel: 5}, msg)
}

func TestSessionChanged(t *testing.T) {
	p := newMQTTPublisher(zerolog.Nop(), newFakeMQTT(), newHub(), func(button.Event) {})
	since := time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)

	msg, changed := p.sessionChanged(SessionUpdate{Seq: 2, Session: timeclock.Session{ClockedIn: true, Since: since}})
	assert.True(t, changed)
	assert.True(t, msg.ClockedIn)
	if assert.NotNil(t, msg.Since) {
		assert.Equal(t, since, *msg.Since)
	}

	// Stale update arriving late
	_, changed = p.sessionChanged(SessionUpdate{Seq: 1})
	assert.False(t, changed)

	msg, changed = p.sessionChanged(SessionUpdate{Seq: 3})
	assert.True(t, changed)
	assert.Equal(t, sessionMessage{}, msg)
}

func TestOnMessage(t *testing.T) {
	var received []button.Event
	p := newMQTTPublisher(zerolog.Nop(), newFakeMQTT(), newHub(), func(e button.Event) {
		received = append(received, e)
	})
	p.onMessage("button/command", []byte("press"))
	p.onMessage("button/command", []byte("bogus"))
	p.onMessage("button/command", []byte("long"))
	assert.Equal(t, []button.Event{button.ShortPress, button.LongPress}, received)
}
