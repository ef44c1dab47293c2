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
	"context"
	"sync"
	"time"

	"github.com/binkynet/WallClock/pkg/ws2812"
)

type virtualBridge struct {
	button *VirtualPin
	strip  *RecordingStrip
}

// VirtualBridge is a bridge without hardware.
// Its button is pressed through PressButton (or the pin directly)
// and its strip records the frames it receives.
type VirtualBridge interface {
	API
	Simulator
	// Pin returns the simulated button pin.
	Pin() *VirtualPin
	// Strip returns the recording LED strip.
	Strip() *RecordingStrip
}

// NewVirtualBridge implements the bridge for a virtual worker.
func NewVirtualBridge(timing ws2812.Timing) VirtualBridge {
	return &virtualBridge{
		button: NewVirtualPin(),
		strip:  NewRecordingStrip(timing),
	}
}

// Button returns the simulated push-button.
func (p *virtualBridge) Button() (InputPin, error) {
	return p.button, nil
}

// LedStrip returns the recording strip.
func (p *virtualBridge) LedStrip() (PulseTransmitter, error) {
	return p.strip, nil
}

func (p *virtualBridge) Pin() *VirtualPin       { return p.button }
func (p *virtualBridge) Strip() *RecordingStrip { return p.strip }
func (p *virtualBridge) Close() error           { return nil }

// PressButton holds the button down for the given duration.
func (p *virtualBridge) PressButton(ctx context.Context, hold time.Duration) error {
	p.button.Set(true)
	defer p.button.Set(false)
	select {
	case <-time.After(hold):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VirtualPin is an input pin whose value is set by software.
type VirtualPin struct {
	mutex         sync.Mutex
	value         bool
	activations   uint64
	deactivations uint64
	changed       chan struct{}
}

// NewVirtualPin creates an inactive virtual pin.
func NewVirtualPin() *VirtualPin {
	return &VirtualPin{
		changed: make(chan struct{}),
	}
}

// Set the logical value of the pin.
func (p *VirtualPin) Set(active bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.value == active {
		return
	}
	p.value = active
	if active {
		p.activations++
	} else {
		p.deactivations++
	}
	close(p.changed)
	p.changed = make(chan struct{})
}

// Read the logical value of the pin.
func (p *VirtualPin) Read() (bool, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.value, nil
}

// edges returns the number of transitions towards the given value.
// Must be called with the mutex held.
func (p *VirtualPin) edges(active bool) uint64 {
	if active {
		return p.activations
	}
	return p.deactivations
}

// WaitForEdge blocks until the pin changes to the given value.
func (p *VirtualPin) WaitForEdge(ctx context.Context, active bool) error {
	p.mutex.Lock()
	start := p.edges(active)
	p.mutex.Unlock()
	for {
		p.mutex.Lock()
		if p.edges(active) != start {
			p.mutex.Unlock()
			return nil
		}
		changed := p.changed
		p.mutex.Unlock()

		select {
		case <-changed:
			// Check again
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RecordingStrip is a LED strip that remembers what it was sent.
type RecordingStrip struct {
	mutex  sync.Mutex
	timing ws2812.Timing
	frames int
	last   []ws2812.Pulse
	fail   error
}

// NewRecordingStrip creates a strip that decodes using the given timing.
func NewRecordingStrip(timing ws2812.Timing) *RecordingStrip {
	return &RecordingStrip{
		timing: timing,
	}
}

// Transmit records the given pulses.
func (s *RecordingStrip) Transmit(pulses []ws2812.Pulse) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stripTransmitTotal.Inc()
	if s.fail != nil {
		stripTransmitErrorsTotal.Inc()
		return s.fail
	}
	s.frames++
	s.last = append(s.last[:0], pulses...)
	return nil
}

// FailWith makes all following transmissions fail with the given error.
// Pass nil to make them succeed again.
func (s *RecordingStrip) FailWith(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fail = err
}

// Frames returns the number of frames received.
func (s *RecordingStrip) Frames() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.frames
}

// LastPulses returns a copy of the last received pulse train.
func (s *RecordingStrip) LastPulses() []ws2812.Pulse {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]ws2812.Pulse(nil), s.last...)
}

// LastPixels decodes the last received pulse train.
func (s *RecordingStrip) LastPixels() ([]ws2812.RGB, error) {
	return s.timing.Decode(s.LastPulses())
}
