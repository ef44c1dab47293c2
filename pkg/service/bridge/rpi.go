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
	"sync"
	"time"

	"github.com/ecc1/gpio"
	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"

	"github.com/binkynet/WallClock/pkg/ws2812"
)

const (
	defaultButtonPin  = 9
	defaultSPIDevice  = "/dev/spidev0.0"
	defaultSPISpeedHz = 8000000
)

// RaspberryPiConfig holds the pin assignments of the Raspberry PI bridge.
type RaspberryPiConfig struct {
	// GPIO number of the push-button
	ButtonPin int
	// SPI device that drives the LED strip data line (MOSI)
	SPIDevice string
	// SPI clock, determines the resolution of the strip pulses
	SPISpeedHz uint32
	// Strip pulse timing
	Timing ws2812.Timing
}

// DefaultRaspberryPiConfig returns the standard pin assignments.
func DefaultRaspberryPiConfig() RaspberryPiConfig {
	return RaspberryPiConfig{}.withDefaults()
}

func (c RaspberryPiConfig) withDefaults() RaspberryPiConfig {
	if c.ButtonPin == 0 {
		c.ButtonPin = defaultButtonPin
	}
	if c.SPIDevice == "" {
		c.SPIDevice = defaultSPIDevice
	}
	if c.SPISpeedHz == 0 {
		c.SPISpeedHz = defaultSPISpeedHz
	}
	if c.Timing == (ws2812.Timing{}) {
		c.Timing = ws2812.DefaultTiming
	}
	return c
}

type piBridge struct {
	mutex  sync.Mutex
	config RaspberryPiConfig
	button InputPin
	strip  *spiStrip
}

// NewRaspberryPiBridge implements the bridge for Raspberry PI's
func NewRaspberryPiBridge(config RaspberryPiConfig) (API, error) {
	return &piBridge{
		config: config.withDefaults(),
	}, nil
}

// Button opens the input pin the push-button is connected to.
func (p *piBridge) Button() (InputPin, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.button == nil {
		activeLow := true
		pin, err := gpio.Input(p.config.ButtonPin, activeLow)
		if err != nil {
			return nil, errors.Wrapf(err, "Input[%d] failed", p.config.ButtonPin)
		}
		p.button = newPolledInput(pin)
	}
	return p.button, nil
}

// LedStrip opens the SPI device that drives the LED strip.
func (p *piBridge) LedStrip() (PulseTransmitter, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.strip == nil {
		bitPeriod := time.Second / time.Duration(p.config.SPISpeedHz)
		dev, err := openSPIDevice(p.config.SPIDevice, p.config.SPISpeedHz)
		if err != nil {
			return nil, errors.Wrap(err, "openSPIDevice failed")
		}
		p.strip = &spiStrip{
			dev:       dev,
			bitPeriod: bitPeriod,
			latch:     p.config.Timing.Latch,
		}
	}
	return p.strip, nil
}

func (p *piBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var ae aerr.AggregateError
	if p.strip != nil {
		strip := p.strip
		p.strip = nil
		if err := strip.dev.closeFile(); err != nil {
			ae.Add(errors.Wrap(err, "Close[strip] failed"))
		}
	}
	p.button = nil
	return ae.AsError()
}

// spiStrip transmits pulse trains as a SPI bit stream.
type spiStrip struct {
	mutex     sync.Mutex
	dev       *spiDevice
	bitPeriod time.Duration
	latch     time.Duration
}

// Transmit sends the given pulses as a single burst.
func (s *spiStrip) Transmit(pulses []ws2812.Pulse) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data := ws2812.Pack(pulses, s.bitPeriod, s.latch)
	stripTransmitTotal.Inc()
	stripBurstBytes.Set(float64(len(data)))
	if err := s.dev.write(data); err != nil {
		stripTransmitErrorsTotal.Inc()
		return errors.Wrap(err, "SPI write failed")
	}
	return nil
}
