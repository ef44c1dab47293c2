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

package util

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNextDelay(t *testing.T) {
	assert.Equal(t, time.Millisecond*15, nextDelay(time.Millisecond*10))
	assert.Equal(t, maxRestartDelay, nextDelay(time.Second*4))
	assert.Equal(t, maxRestartDelay, nextDelay(maxRestartDelay))
}

func TestUntilCanceledRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	done := make(chan error)
	go func() {
		done <- UntilCanceled(ctx, zerolog.Nop(), "test", func() error {
			if atomic.AddInt32(&calls, 1) >= 3 {
				cancel()
			}
			return errors.New("failure")
		})
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second * 5):
		t.Fatal("UntilCanceled did not return")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestUntilCanceledAlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	assert.NoError(t, UntilCanceled(ctx, zerolog.Nop(), "test", func() error {
		called = true
		return nil
	}))
	assert.False(t, called)
}
