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
	"time"
)

// Pack renders a pulse train into a bit stream clocked at the given bit period,
// most significant bit first. This is used to drive the strip from the MOSI
// line of a SPI controller. Each phase is rounded to the nearest number of
// bits (at least 1). The stream ends with a low period of at least latch,
// padded to a whole byte.
func Pack(pulses []Pulse, bitPeriod, latch time.Duration) []byte {
	w := bitWriter{}
	for _, p := range pulses {
		w.write(true, bitsFor(p.High, bitPeriod))
		w.write(false, bitsFor(p.Low, bitPeriod))
	}
	latchBits := int((latch + bitPeriod - 1) / bitPeriod)
	w.write(false, latchBits)
	w.pad()
	return w.buf
}

// bitsFor returns the number of bits of given period needed for d.
func bitsFor(d, bitPeriod time.Duration) int {
	n := int((d + bitPeriod/2) / bitPeriod)
	if n < 1 {
		return 1
	}
	return n
}

type bitWriter struct {
	buf   []byte
	nbits int
}

func (w *bitWriter) write(level bool, count int) {
	for i := 0; i < count; i++ {
		if w.nbits%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if level {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.nbits%8)
		}
		w.nbits++
	}
}

func (w *bitWriter) pad() {
	if rem := w.nbits % 8; rem != 0 {
		w.nbits += 8 - rem
	}
}
