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
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/binkynet/WallClock/pkg/ws2812"
)

// Command changes what the LED strip shows.
// Implementations: SetStatus, SetEnergyMeter, Rainbow.
type Command interface {
	fmt.Stringer
	isCommand()
}

// SetStatus sets the color of the status pixel.
type SetStatus struct {
	Color StatusColor
}

// SetEnergyMeter lights the first Level energy pixels.
// Levels above MaxEnergyLevel are treated as MaxEnergyLevel.
type SetEnergyMeter struct {
	Level uint8
}

// Rainbow plays the rainbow animation, then restores the strip.
type Rainbow struct{}

func (SetStatus) isCommand()      {}
func (SetEnergyMeter) isCommand() {}
func (Rainbow) isCommand()        {}

func (c SetStatus) String() string      { return "status:" + c.Color.String() }
func (c SetEnergyMeter) String() string { return fmt.Sprintf("energy:%d", c.Level) }
func (Rainbow) String() string          { return "rainbow" }

// StatusColor is the color of the status pixel.
type StatusColor uint8

const (
	// Off turns the status pixel off.
	Off StatusColor = iota
	// Red means clocked out.
	Red
	// Green means clocked in, or the last operation succeeded.
	Green
	// Blue means connecting.
	Blue
	// Yellow means an error occurred.
	Yellow
	// Purple means a request is in flight.
	Purple
)

var (
	statusColorNames = map[StatusColor]string{
		Off:    "off",
		Red:    "red",
		Green:  "green",
		Blue:   "blue",
		Yellow: "yellow",
		Purple: "purple",
	}
	// UnknownStatusColorError is returned when parsing an unknown color name.
	UnknownStatusColorError = errors.New("unknown status color")
)

// RGB returns the pixel value of the color.
func (c StatusColor) RGB() ws2812.RGB {
	switch c {
	case Red:
		return ws2812.RGB{R: 255}
	case Green:
		return ws2812.RGB{G: 255}
	case Blue:
		return ws2812.RGB{B: 255}
	case Yellow:
		return ws2812.RGB{R: 255, G: 255}
	case Purple:
		return ws2812.RGB{R: 128, B: 128}
	default:
		return ws2812.RGB{}
	}
}

func (c StatusColor) String() string {
	if name, found := statusColorNames[c]; found {
		return name
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// ParseStatusColor parses the name of a status color.
func ParseStatusColor(name string) (StatusColor, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range statusColorNames {
		if n == name {
			return c, nil
		}
	}
	return Off, errors.Wrapf(UnknownStatusColorError, "'%s'", name)
}
