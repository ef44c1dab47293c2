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
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/binkynet/WallClock/pkg/events"
	"github.com/binkynet/WallClock/pkg/service/bridge"
	"github.com/binkynet/WallClock/pkg/ws2812"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// frameRecorder remembers the frames shown by a renderer.
type frameRecorder struct {
	mutex  sync.Mutex
	frames []Frame
}

func (r *frameRecorder) add(f Frame) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.frames = append(r.frames, f)
}

func (r *frameRecorder) count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.frames)
}

func (r *frameRecorder) last() Frame {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if len(r.frames) == 0 {
		return Frame{}
	}
	return r.frames[len(r.frames)-1]
}

func (r *frameRecorder) since(n int) []Frame {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Frame(nil), r.frames[n:]...)
}

type testRenderer struct {
	strip    *bridge.RecordingStrip
	commands *events.Signal[Command]
	recorder *frameRecorder
	stop     func()
}

func startRenderer(t *testing.T, refresh time.Duration) *testRenderer {
	tr := &testRenderer{
		strip:    bridge.NewRecordingStrip(ws2812.DefaultTiming),
		commands: events.NewSignal[Command](),
		recorder: &frameRecorder{},
	}
	svc := NewService(Config{
		Brightness:        255,
		CommandTimeout:    time.Millisecond * 10,
		IdleInterval:      time.Millisecond * 5,
		RefreshInterval:   refresh,
		RainbowFrameDelay: time.Millisecond,
	}, Dependencies{
		Log:      zerolog.Nop(),
		Strip:    tr.strip,
		Commands: tr.commands,
		Timing:   ws2812.DefaultTiming,
		OnFrame:  tr.recorder.add,
	})
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, svc.Run(ctx))
	}()
	tr.stop = func() {
		cancel()
		wg.Wait()
	}
	return tr
}

// waitFor waits until the last frame matches the given predicate.
func (tr *testRenderer) waitFor(t *testing.T, pred func(Frame) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		return pred(tr.recorder.last())
	}, time.Second*2, time.Millisecond*5)
}

func TestRendererInitialBlue(t *testing.T) {
	tr := startRenderer(t, time.Minute)
	defer tr.stop()

	tr.waitFor(t, func(f Frame) bool { return f[0] == Blue.RGB() })
	require.Eventually(t, func() bool { return tr.strip.Frames() >= 1 }, time.Second, time.Millisecond*5)

	pulses := tr.strip.LastPulses()
	assert.Len(t, pulses, NumPixels*ws2812.BitsPerPixel)
	pixels, err := tr.strip.LastPixels()
	require.NoError(t, err)
	assert.Equal(t, ws2812.RGB{B: 255}, pixels[0])
	for i := 1; i < NumPixels; i++ {
		assert.Equal(t, ws2812.RGB{}, pixels[i])
	}
}

func TestRendererStatusAndEnergy(t *testing.T) {
	tr := startRenderer(t, time.Minute)
	defer tr.stop()
	tr.waitFor(t, func(f Frame) bool { return f[0] == Blue.RGB() })

	tr.commands.Signal(SetEnergyMeter{Level: 3})
	tr.waitFor(t, func(f Frame) bool { return f[3] != ws2812.RGB{} })

	f := tr.recorder.last()
	assert.Equal(t, Blue.RGB(), f[0])
	for i := 4; i < NumPixels; i++ {
		assert.Equal(t, ws2812.RGB{}, f[i])
	}
	pixels, err := tr.strip.LastPixels()
	require.NoError(t, err)
	assert.Equal(t, f.Corrected(255).Slice(), pixels)

	tr.commands.Signal(SetStatus{Color: Red})
	tr.waitFor(t, func(f Frame) bool { return f[0] == Red.RGB() })
	after := tr.recorder.last()
	assert.Equal(t, f[1:], after[1:])
}

func TestRendererTransmitErrorsSwallowed(t *testing.T) {
	tr := startRenderer(t, time.Minute)
	defer tr.stop()
	tr.waitFor(t, func(f Frame) bool { return f[0] == Blue.RGB() })

	tr.strip.FailWith(errors.New("bus error"))
	tr.commands.Signal(SetStatus{Color: Yellow})
	tr.waitFor(t, func(f Frame) bool { return f[0] == Yellow.RGB() })

	tr.strip.FailWith(nil)
	tr.commands.Signal(SetStatus{Color: Green})
	tr.waitFor(t, func(f Frame) bool { return f[0] == Green.RGB() })
	require.Eventually(t, func() bool {
		pixels, err := tr.strip.LastPixels()
		return err == nil && len(pixels) == NumPixels && pixels[0] == ws2812.RGB{G: 255}
	}, time.Second, time.Millisecond*5)
}

func TestRendererRainbowRestores(t *testing.T) {
	tr := startRenderer(t, time.Minute)
	defer tr.stop()

	tr.commands.Signal(SetStatus{Color: Green})
	tr.waitFor(t, func(f Frame) bool { return f[0] == Green.RGB() })
	tr.commands.Signal(SetEnergyMeter{Level: 4})
	tr.waitFor(t, func(f Frame) bool { return f[4] != ws2812.RGB{} })
	before := tr.recorder.last()
	start := tr.recorder.count()

	tr.commands.Signal(Rainbow{})
	require.Eventually(t, func() bool {
		return tr.recorder.count() >= start+RainbowFrames+1
	}, time.Second*5, time.Millisecond*10)

	frames := tr.recorder.since(start)
	for h := 0; h < RainbowFrames; h++ {
		assert.Equal(t, RainbowFrame(uint8(h), 127), frames[h], "frame %d", h)
	}
	assert.Equal(t, before, frames[RainbowFrames])
}

func TestRendererPeriodicRefresh(t *testing.T) {
	tr := startRenderer(t, time.Millisecond*50)
	defer tr.stop()

	require.Eventually(t, func() bool {
		return tr.strip.Frames() >= 3
	}, time.Second*2, time.Millisecond*10)
	assert.Equal(t, Blue.RGB(), tr.recorder.last()[0])
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "status:purple", SetStatus{Color: Purple}.String())
	assert.Equal(t, "energy:5", SetEnergyMeter{Level: 5}.String())
	assert.Equal(t, "rainbow", Rainbow{}.String())
	assert.Equal(t, "energy", commandKind(SetEnergyMeter{}))
}
