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
	"time"

	"github.com/binkynet/WallClock/pkg/ws2812"
)

// API of the bridge, the hardware that connects the clock-in button
// and the addressable LED strip to the worker.
type API interface {
	// Button opens the (active-low) input pin the push-button is connected to.
	Button() (InputPin, error)
	// LedStrip opens the output used to drive the addressable LED strip.
	LedStrip() (PulseTransmitter, error)

	Close() error
}

// InputPin is the interface satisfied by GPIO input pins.
type InputPin interface {
	// Read the logical value of the pin (true means active / pressed).
	Read() (bool, error)
	// WaitForEdge blocks until the logical value of the pin changes
	// to the given value, or the context is canceled.
	WaitForEdge(ctx context.Context, active bool) error
}

// PulseTransmitter sends a pulse train to the LED strip as a single burst.
type PulseTransmitter interface {
	Transmit(pulses []ws2812.Pulse) error
}

// Simulator is implemented by bridges that can simulate button presses.
type Simulator interface {
	// PressButton holds the button down for the given duration.
	PressButton(ctx context.Context, hold time.Duration) error
}
