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

package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-pubsub"

	"github.com/binkynet/WallClock/pkg/service/button"
	"github.com/binkynet/WallClock/pkg/service/leds"
	"github.com/binkynet/WallClock/pkg/service/timeclock"
)

// FrameUpdate is published for every frame shown on the strip.
type FrameUpdate struct {
	// Sequence number; higher numbers are newer frames
	Seq   uint64
	Time  time.Time
	Frame leds.Frame
}

// ButtonUpdate is published for every button event.
type ButtonUpdate struct {
	Time  time.Time
	Event button.Event
	// Origin of the event ("button", "remote")
	Source string
}

// ToggleUpdate is published for every completed toggle.
type ToggleUpdate struct {
	Outcome timeclock.Outcome
}

// SessionUpdate is published for every change of the clocked in/out session.
type SessionUpdate struct {
	// Sequence number; higher numbers are newer sessions
	Seq     uint64
	Session timeclock.Session
}

// hub distributes updates to observers.
// Observers are called asynchronously and must not block.
type hub struct {
	ps         *pubsub.PubSub
	seq        uint64
	sessionSeq uint64
	frames     *registry[FrameUpdate]
	buttons    *registry[ButtonUpdate]
	toggles    *registry[ToggleUpdate]
	sessions   *registry[SessionUpdate]
}

func newHub() *hub {
	h := &hub{
		ps:       pubsub.New(),
		frames:   newRegistry[FrameUpdate](),
		buttons:  newRegistry[ButtonUpdate](),
		toggles:  newRegistry[ToggleUpdate](),
		sessions: newRegistry[SessionUpdate](),
	}
	h.ps.Sub(h.frames.dispatch)
	h.ps.Sub(h.buttons.dispatch)
	h.ps.Sub(h.toggles.dispatch)
	h.ps.Sub(h.sessions.dispatch)
	return h
}

func (h *hub) publishFrame(f leds.Frame) {
	h.ps.Pub(FrameUpdate{
		Seq:   atomic.AddUint64(&h.seq, 1),
		Time:  time.Now(),
		Frame: f,
	})
}

func (h *hub) publishButton(event button.Event, source string) {
	h.ps.Pub(ButtonUpdate{
		Time:   time.Now(),
		Event:  event,
		Source: source,
	})
}

func (h *hub) publishToggle(outcome timeclock.Outcome) {
	h.ps.Pub(ToggleUpdate{Outcome: outcome})
}

func (h *hub) publishSession(session timeclock.Session) {
	h.ps.Pub(SessionUpdate{
		Seq:     atomic.AddUint64(&h.sessionSeq, 1),
		Session: session,
	})
}

// SubscribeFrames registers a frame observer.
// Call the returned function to unsubscribe.
func (h *hub) SubscribeFrames(cb func(FrameUpdate)) func() {
	return h.frames.add(cb)
}

// SubscribeButton registers a button event observer.
// Call the returned function to unsubscribe.
func (h *hub) SubscribeButton(cb func(ButtonUpdate)) func() {
	return h.buttons.add(cb)
}

// SubscribeToggles registers a toggle outcome observer.
// Call the returned function to unsubscribe.
func (h *hub) SubscribeToggles(cb func(ToggleUpdate)) func() {
	return h.toggles.add(cb)
}

// SubscribeSessions registers a session observer.
// Call the returned function to unsubscribe.
func (h *hub) SubscribeSessions(cb func(SessionUpdate)) func() {
	return h.sessions.add(cb)
}

// registry holds the observers of updates of type T.
// PubSub.Leave matches callbacks by code pointer, so the hub subscribes
// a single dispatcher per type and keeps its own observers here.
type registry[T any] struct {
	mutex     sync.RWMutex
	nextID    int
	callbacks map[int]func(T)
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{
		callbacks: make(map[int]func(T)),
	}
}

// add registers cb and returns a function that removes it again.
func (r *registry[T]) add(cb func(T)) func() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	id := r.nextID
	r.nextID++
	r.callbacks[id] = cb
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mutex.Lock()
			defer r.mutex.Unlock()
			delete(r.callbacks, id)
		})
	}
}

// dispatch calls all registered callbacks with x.
func (r *registry[T]) dispatch(x T) {
	r.mutex.RLock()
	callbacks := make([]func(T), 0, len(r.callbacks))
	for _, cb := range r.callbacks {
		callbacks = append(callbacks, cb)
	}
	r.mutex.RUnlock()
	for _, cb := range callbacks {
		cb(x)
	}
}

// len returns the number of registered callbacks.
func (r *registry[T]) len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.callbacks)
}
