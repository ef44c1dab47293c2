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
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/WallClock/pkg/events"
	"github.com/binkynet/WallClock/pkg/service/bridge"
)

// Config of the button state machine.
type Config struct {
	// Presses starting sooner than this after the previous gesture are ignored.
	Debounce time.Duration
	// Presses held at least this long are long presses.
	LongPress time.Duration
	// Interval between reads of the pin while pressed.
	PollInterval time.Duration
}

// DefaultConfig returns the standard button timing.
func DefaultConfig() Config {
	return Config{
		Debounce:     time.Millisecond * 50,
		LongPress:    time.Millisecond * 2000,
		PollInterval: time.Millisecond * 50,
	}
}

// Dependencies of the button state machine.
type Dependencies struct {
	Log zerolog.Logger
	// Pin the button is connected to
	Pin bridge.InputPin
	// Channel that completed gestures are signaled on
	Events *events.Signal[Event]
	// Optional observer of emitted events
	OnEvent func(Event)
}

// Service watches the button and emits events.
type Service interface {
	// Run the state machine until the given context is canceled.
	Run(ctx context.Context) error
}

type service struct {
	Config
	Dependencies
	now func() time.Time
}

// NewService creates a new button state machine.
func NewService(conf Config, deps Dependencies) Service {
	deps.Log = deps.Log.With().Str("component", "button").Logger()
	return &service{
		Config:       conf,
		Dependencies: deps,
		now:          time.Now,
	}
}

// Run the state machine until the given context is canceled.
func (s *service) Run(ctx context.Context) error {
	log := s.Log
	t := newTracker(s.Debounce, s.LongPress)
	log.Info().Msg("Button task started")
	for {
		// Wait for the button to be pressed
		if err := s.Pin.WaitForEdge(ctx, true); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "WaitForEdge failed")
		}
		if !t.Press(s.now()) {
			pressesDebouncedTotal.Inc()
			continue
		}
		log.Debug().Msg("Button pressed")
		if err := s.track(ctx, t); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// track polls a pressed button until the gesture is complete.
func (s *service) track(ctx context.Context, t *tracker) error {
	for {
		if !s.sleep(ctx, s.PollInterval) {
			return nil
		}
		active, err := s.read()
		if err != nil {
			return err
		}
		now := s.now()
		event, step := t.Poll(now, !active)
		switch step {
		case StepHeld:
			// Keep polling
		case StepReleased:
			s.Log.Info().
				Dur("duration", t.Elapsed(now)).
				Str("event", event.String()).
				Msg("Press detected")
			s.emit(event)
			return nil
		case StepLongHeld:
			s.Log.Info().Msg("Long press detected (held)")
			s.emit(event)
			if err := s.waitForRelease(ctx); err != nil {
				return err
			}
			t.Release(s.now())
			return nil
		}
	}
}

// waitForRelease polls the pin until it is no longer active.
func (s *service) waitForRelease(ctx context.Context) error {
	for {
		active, err := s.read()
		if err != nil {
			return err
		}
		if !active {
			return nil
		}
		if !s.sleep(ctx, s.PollInterval) {
			return nil
		}
	}
}

func (s *service) read() (bool, error) {
	active, err := s.Pin.Read()
	if err != nil {
		readErrorsTotal.Inc()
		return false, errors.Wrap(err, "Read failed")
	}
	return active, nil
}

func (s *service) emit(event Event) {
	eventsTotal.WithLabelValues(event.String()).Inc()
	s.Events.Signal(event)
	if cb := s.OnEvent; cb != nil {
		cb(event)
	}
}

// sleep waits for the given duration.
// Returns false when the context was canceled first.
func (s *service) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
