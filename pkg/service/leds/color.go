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
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/binkynet/WallClock/pkg/ws2812"
)

const (
	gammaExponent = 2.8
)

// gammaTable maps a linear channel value to a perceptually corrected one.
var gammaTable = func() (t [256]uint8) {
	for i := range t {
		t[i] = uint8(math.Pow(float64(i)/255, gammaExponent)*255 + 0.5)
	}
	return t
}()

// Gamma returns the gamma corrected value of a single channel.
func Gamma(v uint8) uint8 {
	return gammaTable[v]
}

// Scale scales a single channel by the given brightness.
// A brightness of 255 leaves the value unchanged.
func Scale(v, brightness uint8) uint8 {
	return uint8(uint16(v) * (uint16(brightness) + 1) / 256)
}

// Correct returns the given pixel after gamma correction,
// followed by brightness scaling.
func Correct(c ws2812.RGB, brightness uint8) ws2812.RGB {
	return ws2812.RGB{
		R: Scale(Gamma(c.R), brightness),
		G: Scale(Gamma(c.G), brightness),
		B: Scale(Gamma(c.B), brightness),
	}
}

// Hue returns a fully saturated pixel with the given hue (in degrees)
// and value (0-255).
func Hue(degrees float64, value uint8) ws2812.RGB {
	degrees = math.Mod(degrees, 360)
	if degrees < 0 {
		degrees += 360
	}
	r, g, b := colorful.Hsv(degrees, 1, float64(value)/255).RGB255()
	return ws2812.RGB{R: r, G: g, B: b}
}

// WheelHue returns a fully saturated pixel for a position
// on a 256-step color wheel.
func WheelHue(position uint8, value uint8) ws2812.RGB {
	return Hue(float64(position)*360/256, value)
}
