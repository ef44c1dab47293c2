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
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/WallClock/pkg/events"
	"github.com/binkynet/WallClock/pkg/service/bridge"
	"github.com/binkynet/WallClock/pkg/ws2812"
)

// Config of the LED renderer.
type Config struct {
	// Global brightness (0-255)
	Brightness uint8
	// Maximum time to wait for a command
	CommandTimeout time.Duration
	// Time to sleep between command checks
	IdleInterval time.Duration
	// The current frame is re-sent when no command arrived for this long
	RefreshInterval time.Duration
	// Time each rainbow frame is shown
	RainbowFrameDelay time.Duration
}

// DefaultConfig returns the standard renderer settings.
func DefaultConfig() Config {
	return Config{
		Brightness:        128,
		CommandTimeout:    time.Millisecond * 100,
		IdleInterval:      time.Millisecond * 50,
		RefreshInterval:   time.Second,
		RainbowFrameDelay: time.Millisecond * 10,
	}
}

// Dependencies of the LED renderer.
type Dependencies struct {
	Log zerolog.Logger
	// Strip that frames are sent to
	Strip bridge.PulseTransmitter
	// Channel that commands are received on
	Commands *events.Signal[Command]
	// Pulse timing of the strip
	Timing ws2812.Timing
	// Optional observer of every frame shown (before correction)
	OnFrame func(Frame)
}

// Service renders commands onto the LED strip.
type Service interface {
	// Run the renderer until the given context is canceled.
	Run(ctx context.Context) error
}

type service struct {
	Config
	Dependencies
	buffer *Buffer
}

// NewService creates a new LED renderer.
func NewService(conf Config, deps Dependencies) Service {
	deps.Log = deps.Log.With().Str("component", "leds").Logger()
	return &service{
		Config:       conf,
		Dependencies: deps,
		buffer:       NewBuffer(conf.Brightness),
	}
}

// Run the renderer until the given context is canceled.
func (s *service) Run(ctx context.Context) error {
	log := s.Log
	log.Info().Msg("LED task started")

	// Connecting
	s.buffer.SetStatus(Blue)
	s.show(s.buffer.Pixels())
	lastShown := time.Now()

	for {
		cmd, err := s.Commands.WaitTimeout(ctx, s.CommandTimeout)
		if err == nil {
			s.apply(ctx, cmd)
			lastShown = time.Now()
		} else if ctx.Err() != nil {
			return nil
		} else if !events.IsTimeout(err) {
			return errors.Wrap(err, "WaitTimeout failed")
		} else if s.RefreshInterval > 0 && time.Since(lastShown) >= s.RefreshInterval {
			refreshesTotal.Inc()
			s.show(s.buffer.Pixels())
			lastShown = time.Now()
		}
		if !sleep(ctx, s.IdleInterval) {
			return nil
		}
	}
}

// apply the given command to the buffer and show the result.
func (s *service) apply(ctx context.Context, cmd Command) {
	log := s.Log
	commandsTotal.WithLabelValues(commandKind(cmd)).Inc()
	switch cmd := cmd.(type) {
	case SetStatus:
		log.Debug().Str("color", cmd.Color.String()).Msg("Setting status")
		s.buffer.SetStatus(cmd.Color)
	case SetEnergyMeter:
		s.buffer.SetEnergyMeter(cmd.Level)
		log.Debug().Uint8("level", s.buffer.EnergyLevel()).Msg("Setting energy meter")
		energyLevelGauge.Set(float64(s.buffer.EnergyLevel()))
	case Rainbow:
		log.Debug().Msg("Rainbow mode")
		s.rainbow(ctx)
	default:
		log.Warn().Str("command", cmd.String()).Msg("Unknown command")
		return
	}
	s.show(s.buffer.Pixels())
}

// rainbow plays the rainbow animation.
// The buffer is left untouched, so showing it afterwards restores
// the strip to its state before the animation.
func (s *service) rainbow(ctx context.Context) {
	for h := 0; h < RainbowFrames; h++ {
		s.show(RainbowFrame(uint8(h), s.Brightness/2))
		if !sleep(ctx, s.RainbowFrameDelay) {
			return
		}
	}
}

// show corrects, encodes and transmits the given frame.
// Transmission failures are logged only; the next frame supersedes it.
func (s *service) show(f Frame) {
	pulses := s.Timing.Encode(f.Corrected(s.Brightness).Slice())
	framesTotal.Inc()
	if err := s.Strip.Transmit(pulses); err != nil {
		transmitErrorsTotal.Inc()
		s.Log.Debug().Err(err).Msg("Transmit failed")
	}
	if cb := s.OnFrame; cb != nil {
		cb(f)
	}
}

func commandKind(cmd Command) string {
	switch cmd.(type) {
	case SetStatus:
		return "status"
	case SetEnergyMeter:
		return "energy"
	case Rainbow:
		return "rainbow"
	default:
		return "unknown"
	}
}

// sleep waits for the given duration.
// Returns false when the context was canceled first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
