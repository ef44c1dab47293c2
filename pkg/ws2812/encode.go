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

package ws2812

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// RGB is the color of a single pixel.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color in #rrggbb notation.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Pulse is the line waveform of a single transmitted bit:
// the line is high for High, then low for Low.
type Pulse struct {
	High time.Duration
	Low  time.Duration
}

// Timing holds the pulse shapes of a "1" and a "0" bit.
type Timing struct {
	One  Pulse
	Zero Pulse
	// Minimum low time that the strip treats as end of frame.
	Latch time.Duration
}

const (
	// BitsPerPixel is the number of pulses used for a single pixel.
	BitsPerPixel = 24
)

var (
	// DefaultTiming is the WS2812B pulse timing.
	DefaultTiming = Timing{
		One:   Pulse{High: 800 * time.Nanosecond, Low: 350 * time.Nanosecond},
		Zero:  Pulse{High: 350 * time.Nanosecond, Low: 800 * time.Nanosecond},
		Latch: 50 * time.Microsecond,
	}

	// InvalidPulseError is returned when a pulse cannot be decoded.
	InvalidPulseError = errors.New("invalid pulse")
)

// Encode converts the given pixels into a contiguous pulse train.
// Every pixel is sent as green, red, blue; each byte most significant bit first.
func (t Timing) Encode(pixels []RGB) []Pulse {
	result := make([]Pulse, 0, len(pixels)*BitsPerPixel)
	for _, p := range pixels {
		for _, c := range [3]uint8{p.G, p.R, p.B} {
			for bit := 7; bit >= 0; bit-- {
				if (c>>uint(bit))&1 == 1 {
					result = append(result, t.One)
				} else {
					result = append(result, t.Zero)
				}
			}
		}
	}
	return result
}

// Decode converts a pulse train back into pixels.
// A pulse with a longer high than low phase is a "1" bit.
func (t Timing) Decode(pulses []Pulse) ([]RGB, error) {
	if len(pulses)%BitsPerPixel != 0 {
		return nil, errors.Wrapf(InvalidPulseError, "pulse count %d is not a multiple of %d", len(pulses), BitsPerPixel)
	}
	result := make([]RGB, 0, len(pulses)/BitsPerPixel)
	for offset := 0; offset < len(pulses); offset += BitsPerPixel {
		var grb [3]uint8
		for i := range grb {
			for bit := 0; bit < 8; bit++ {
				p := pulses[offset+i*8+bit]
				if p.High <= 0 || p.Low <= 0 {
					return nil, errors.Wrapf(InvalidPulseError, "pulse %d has empty phase", offset+i*8+bit)
				}
				grb[i] <<= 1
				if p.High > p.Low {
					grb[i] |= 1
				}
			}
		}
		result = append(result, RGB{G: grb[0], R: grb[1], B: grb[2]})
	}
	return result, nil
}

// Duration returns the time needed to transmit the given pulses,
// excluding the latch.
func Duration(pulses []Pulse) time.Duration {
	var total time.Duration
	for _, p := range pulses {
		total += p.High + p.Low
	}
	return total
}
