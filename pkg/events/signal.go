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

package events

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// TimeoutError is returned by WaitTimeout when no value arrived in time.
	TimeoutError = errors.New("timeout")
)

// IsTimeout returns true if the cause of the given error is a TimeoutError.
func IsTimeout(err error) bool {
	return errors.Cause(err) == TimeoutError
}

// Sink is the producing side of a Signal.
type Sink[T any] interface {
	// Signal stores the given value, replacing any pending value.
	Signal(value T)
	// Pending returns true if a value is waiting to be consumed.
	Pending() bool
}

var _ Sink[struct{}] = &Signal[struct{}]{}

// Signal is a single-slot mailbox.
// It holds at most one pending value. Signaling a new value
// overwrites any value that has not been consumed yet, so a
// slow consumer always sees the most recent value only.
type Signal[T any] struct {
	mutex   sync.Mutex
	value   T
	pending bool
	wake    chan struct{}
}

// NewSignal creates an empty Signal.
func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{
		wake: make(chan struct{}, 1),
	}
}

// Signal stores the given value, replacing any pending value,
// and releases a waiting consumer.
func (s *Signal[T]) Signal(value T) {
	s.mutex.Lock()
	s.value = value
	s.pending = true
	s.mutex.Unlock()

	select {
	case s.wake <- struct{}{}:
		// Waiter notified
	default:
		// Wakeup already pending
	}
}

// TryTake returns the pending value (if any) and clears it.
func (s *Signal[T]) TryTake() (T, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var zero T
	if !s.pending {
		return zero, false
	}
	value := s.value
	s.value = zero
	s.pending = false
	return value, true
}

// Pending returns true if a value is waiting to be consumed.
func (s *Signal[T]) Pending() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.pending
}

// Reset drops any pending value.
func (s *Signal[T]) Reset() {
	s.TryTake()
}

// Wait blocks until a value is available, then returns and clears it.
// Returns the context error when the given context is canceled first.
func (s *Signal[T]) Wait(ctx context.Context) (T, error) {
	for {
		if value, ok := s.TryTake(); ok {
			return value, nil
		}
		select {
		case <-s.wake:
			// Check again
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// WaitTimeout races Wait against a timer of the given duration.
// When the timer fires first, a TimeoutError is returned and any
// value signaled afterwards is left for the next wait.
func (s *Signal[T]) WaitTimeout(ctx context.Context, timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if value, ok := s.TryTake(); ok {
			return value, nil
		}
		select {
		case <-s.wake:
			// Check again
		case <-timer.C:
			var zero T
			return zero, errors.WithStack(TimeoutError)
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
