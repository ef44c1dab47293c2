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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binkynet/WallClock/pkg/ws2812"
)

func TestBufferStatusAndEnergy(t *testing.T) {
	b := NewBuffer(128)
	b.SetStatus(Blue)
	b.SetEnergyMeter(3)

	f := b.Pixels()
	assert.Len(t, f.Slice(), NumPixels)
	assert.Equal(t, Blue.RGB(), f[0])
	// Green to yellow gradient
	assertRGB(t, ws2812.RGB{R: 32, G: 128}, f[1])
	assertRGB(t, ws2812.RGB{R: 64, G: 128}, f[2])
	assertRGB(t, ws2812.RGB{R: 96, G: 128}, f[3])
	for i := 4; i < NumPixels; i++ {
		assert.Equal(t, ws2812.RGB{}, f[i], "pixel %d", i)
	}
	assert.Equal(t, Blue, b.Status())
	assert.Equal(t, uint8(3), b.EnergyLevel())
}

func TestBufferEnergyClamped(t *testing.T) {
	b := NewBuffer(128)
	b.SetEnergyMeter(9)
	clamped := b.Pixels()
	assert.Equal(t, uint8(MaxEnergyLevel), b.EnergyLevel())

	b.SetEnergyMeter(7)
	assert.Equal(t, clamped, b.Pixels())
	// Last pixel is orange-red
	assertRGB(t, ws2812.RGB{R: 128, G: 32}, clamped[7])
}

func TestBufferEnergyZeroClears(t *testing.T) {
	b := NewBuffer(128)
	b.SetStatus(Green)
	b.SetEnergyMeter(5)
	b.SetEnergyMeter(0)

	f := b.Pixels()
	assert.Equal(t, Green.RGB(), f[0])
	for i := 1; i < NumPixels; i++ {
		assert.Equal(t, ws2812.RGB{}, f[i], "pixel %d", i)
	}
}

func TestBufferStatusKeepsEnergy(t *testing.T) {
	b := NewBuffer(128)
	b.SetEnergyMeter(2)
	before := b.Pixels()
	b.SetStatus(Red)
	after := b.Pixels()
	assert.Equal(t, Red.RGB(), after[0])
	assert.Equal(t, before[1:], after[1:])
}

func TestBufferPixelsIsCopy(t *testing.T) {
	b := NewBuffer(128)
	f := b.Pixels()
	f[0] = ws2812.RGB{R: 1}
	assert.Equal(t, ws2812.RGB{}, b.Pixels()[0])
}

func TestRainbowFrame(t *testing.T) {
	f := RainbowFrame(0, 64)
	assertRGB(t, ws2812.RGB{R: 64}, f[0])
	assertRGB(t, ws2812.RGB{G: 64, B: 64}, f[4])

	// Pixel i of frame h equals pixel 0 of frame h+32i
	g := RainbowFrame(200, 64)
	assert.Equal(t, RainbowFrame(200+32, 64)[0], g[1])
	assert.Equal(t, RainbowFrame(uint8((200+32*7)%256), 64)[0], g[7])
}

func TestFrameCorrected(t *testing.T) {
	b := NewBuffer(255)
	b.SetStatus(Yellow)
	f := b.Pixels().Corrected(128)
	assert.Equal(t, ws2812.RGB{R: 128, G: 128}, f[0])
	assert.Equal(t, ws2812.RGB{}, f[1])
}

func TestStatusOf(t *testing.T) {
	b := NewBuffer(128)
	for _, c := range []StatusColor{Off, Red, Green, Blue, Yellow, Purple} {
		b.SetStatus(c)
		actual, found := StatusOf(b.Pixels())
		assert.True(t, found)
		assert.Equal(t, c, actual)
	}
	_, found := StatusOf(RainbowFrame(10, 64))
	assert.False(t, found)
}

func TestEnergyLevelOf(t *testing.T) {
	b := NewBuffer(128)
	b.SetStatus(Green)
	assert.Equal(t, 0, EnergyLevelOf(b.Pixels()))
	b.SetEnergyMeter(5)
	assert.Equal(t, 5, EnergyLevelOf(b.Pixels()))
	b.SetEnergyMeter(12)
	assert.Equal(t, 7, EnergyLevelOf(b.Pixels()))
}
