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
)

const (
	edgePollInterval = time.Millisecond * 2
)

// readPin is the minimal pin interface (as provided by the GPIO driver).
type readPin interface {
	Read() (bool, error)
}

// polledInput implements WaitForEdge on top of a pin that can only be read.
type polledInput struct {
	pin      readPin
	interval time.Duration
}

// newPolledInput wraps the given pin.
func newPolledInput(pin readPin) InputPin {
	return &polledInput{
		pin:      pin,
		interval: edgePollInterval,
	}
}

// Read the logical value of the pin.
func (p *polledInput) Read() (bool, error) {
	return p.pin.Read()
}

// WaitForEdge blocks until the pin value changes to the given value.
func (p *polledInput) WaitForEdge(ctx context.Context, active bool) error {
	last, err := p.pin.Read()
	if err != nil {
		return maskAny(err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
			// Continue
		}
		value, err := p.pin.Read()
		if err != nil {
			inputReadErrorsTotal.Inc()
			return maskAny(err)
		}
		if value == active && last != active {
			return nil
		}
		last = value
	}
}
