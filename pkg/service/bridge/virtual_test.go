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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/WallClock/pkg/ws2812"
)

func TestVirtualPinWaitForEdge(t *testing.T) {
	pin := NewVirtualPin()
	done := make(chan error, 1)
	go func() {
		done <- pin.WaitForEdge(context.Background(), true)
	}()
	time.Sleep(10 * time.Millisecond)
	pin.Set(true)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("edge not detected")
	}
	v, _ := pin.Read()
	assert.True(t, v)
}

func TestVirtualPinShortPulseIsNotMissed(t *testing.T) {
	pin := NewVirtualPin()
	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	started := make(chan struct{})
	go func() {
		defer wg.Done()
		close(started)
		err = pin.WaitForEdge(context.Background(), true)
	}()
	<-started
	time.Sleep(5 * time.Millisecond)
	pin.Set(true)
	pin.Set(false)
	wg.Wait()
	require.NoError(t, err)
}

func TestVirtualPinAlreadyActiveIsNoEdge(t *testing.T) {
	pin := NewVirtualPin()
	pin.Set(true)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pin.WaitForEdge(ctx, true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVirtualBridgePressButton(t *testing.T) {
	br := NewVirtualBridge(ws2812.DefaultTiming)
	pin, err := br.Button()
	require.NoError(t, err)

	released := make(chan error, 1)
	go func() {
		released <- pin.WaitForEdge(context.Background(), false)
	}()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, br.PressButton(context.Background(), 10*time.Millisecond))
	select {
	case err := <-released:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("release not detected")
	}
}

func TestRecordingStrip(t *testing.T) {
	strip := NewRecordingStrip(ws2812.DefaultTiming)
	pixels := []ws2812.RGB{{R: 1, G: 2, B: 3}, {R: 255}}
	require.NoError(t, strip.Transmit(ws2812.DefaultTiming.Encode(pixels)))
	assert.Equal(t, 1, strip.Frames())

	decoded, err := strip.LastPixels()
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)

	strip.FailWith(errors.New("broken"))
	assert.Error(t, strip.Transmit(nil))
	assert.Equal(t, 1, strip.Frames())
}

type fakeReadPin struct {
	mutex  sync.Mutex
	values []bool
	err    error
}

func (p *fakeReadPin) Read() (bool, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.err != nil {
		return false, p.err
	}
	v := p.values[0]
	if len(p.values) > 1 {
		p.values = p.values[1:]
	}
	return v, nil
}

func TestPolledInputWaitForEdge(t *testing.T) {
	// Initially active, then inactive, then active again: only the
	// second activation is an edge.
	pin := &fakeReadPin{values: []bool{true, true, false, false, true}}
	input := newPolledInput(pin)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, input.WaitForEdge(ctx, true))

	pin.mutex.Lock()
	defer pin.mutex.Unlock()
	assert.Len(t, pin.values, 1)
}

func TestPolledInputReadError(t *testing.T) {
	pin := &fakeReadPin{err: errors.New("gpio gone")}
	input := newPolledInput(pin)
	err := input.WaitForEdge(context.Background(), true)
	require.Error(t, err)
}
