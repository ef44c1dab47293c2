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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// runs returns the lengths of runs of equal bits in the given stream.
func runs(data []byte) []int {
	var result []int
	var last byte = 2
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			if bit == last {
				result[len(result)-1]++
			} else {
				result = append(result, 1)
				last = bit
			}
		}
	}
	return result
}

func TestPackSingleBits(t *testing.T) {
	bitPeriod := 125 * time.Nanosecond
	one := Pack([]Pulse{DefaultTiming.One}, bitPeriod, 0)
	// 6 high bits, 3 low bits, padded to 2 bytes
	assert.Equal(t, []byte{0xFC, 0x00}, one)

	zero := Pack([]Pulse{DefaultTiming.Zero}, bitPeriod, 0)
	// 3 high bits, 6 low bits
	assert.Equal(t, []byte{0xE0, 0x00}, zero)
}

func TestPackFrame(t *testing.T) {
	bitPeriod := 125 * time.Nanosecond
	pulses := DefaultTiming.Encode([]RGB{{R: 0xFF, G: 0x00, B: 0x0F}})
	data := Pack(pulses, bitPeriod, DefaultTiming.Latch)

	r := runs(data)
	// Every pulse starts with a high run
	highs := 0
	for i := 0; i < len(r); i += 2 {
		highs++
	}
	assert.Equal(t, 24, highs)

	// The trailing low run covers at least the latch
	assert.GreaterOrEqual(t, time.Duration(r[len(r)-1])*bitPeriod, DefaultTiming.Latch)
	// First pulse is a 0 bit (green = 0x00)
	assert.Equal(t, 3, r[0])
	assert.Equal(t, 6, r[1])
}

func TestPackMinimumOneBit(t *testing.T) {
	data := Pack([]Pulse{{High: time.Nanosecond, Low: time.Nanosecond}}, time.Microsecond, 0)
	assert.Equal(t, []byte{0x80}, data)
}
