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
	"github.com/binkynet/WallClock/pkg/ws2812"
)

const (
	// NumPixels is the number of pixels on the strip.
	NumPixels = 8
	// StatusPixel is the index of the status pixel.
	StatusPixel = 0
	// MaxEnergyLevel is the number of energy meter pixels.
	MaxEnergyLevel = NumPixels - 1
	// RainbowFrames is the number of frames in the rainbow animation.
	RainbowFrames = 256

	energyHueStart = 120
	energyHueStep  = 15
	rainbowSpread  = 32
)

// Frame is the content of the entire strip.
type Frame [NumPixels]ws2812.RGB

// Slice returns the pixels of the frame as a slice.
func (f Frame) Slice() []ws2812.RGB {
	return f[:]
}

// Corrected returns the frame with gamma correction and
// brightness scaling applied to every pixel.
func (f Frame) Corrected(brightness uint8) Frame {
	var result Frame
	for i, c := range f {
		result[i] = Correct(c, brightness)
	}
	return result
}

// Buffer holds the logical state of the strip.
type Buffer struct {
	brightness uint8
	pixels     Frame
	status     StatusColor
	level      uint8
}

// NewBuffer creates a dark buffer that draws the energy meter
// with the given brightness.
func NewBuffer(brightness uint8) *Buffer {
	return &Buffer{brightness: brightness}
}

// SetStatus sets the status pixel.
func (b *Buffer) SetStatus(color StatusColor) {
	b.status = color
	b.pixels[StatusPixel] = color.RGB()
}

// SetEnergyMeter lights the first level energy pixels with
// a green to orange gradient. Remaining energy pixels are turned off.
func (b *Buffer) SetEnergyMeter(level uint8) {
	if level > MaxEnergyLevel {
		level = MaxEnergyLevel
	}
	b.level = level
	for i := 1; i < NumPixels; i++ {
		if i <= int(level) {
			b.pixels[i] = Hue(float64(energyHueStart-energyHueStep*i), b.brightness)
		} else {
			b.pixels[i] = ws2812.RGB{}
		}
	}
}

// Status returns the last status color set.
func (b *Buffer) Status() StatusColor { return b.status }

// EnergyLevel returns the last (clamped) energy level set.
func (b *Buffer) EnergyLevel() uint8 { return b.level }

// Pixels returns a copy of the current pixels.
func (b *Buffer) Pixels() Frame {
	return b.pixels
}

// Restore replaces the current pixels with the given frame.
func (b *Buffer) Restore(f Frame) {
	b.pixels = f
}

// StatusOf returns the status color shown by the given frame.
// Returns false when the status pixel shows no status color,
// for example during an animation.
func StatusOf(f Frame) (StatusColor, bool) {
	for c := range statusColorNames {
		if c.RGB() == f[StatusPixel] {
			return c, true
		}
	}
	return Off, false
}

// EnergyLevelOf returns the number of lit energy pixels of the given frame.
func EnergyLevelOf(f Frame) int {
	level := 0
	for i := 1; i < NumPixels; i++ {
		if f[i] != (ws2812.RGB{}) {
			level = i
		}
	}
	return level
}

// RainbowFrame returns frame h of the rainbow animation.
func RainbowFrame(h uint8, value uint8) Frame {
	var f Frame
	for i := range f {
		f[i] = WheelHue(h+uint8(rainbowSpread*i), value)
	}
	return f
}
