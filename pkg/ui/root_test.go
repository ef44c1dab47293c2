// Copyright 2023 Ewout Prangsma
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

package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/WallClock/pkg/service"
	"github.com/binkynet/WallClock/pkg/service/leds"
)

type stubService struct {
	mutex  sync.Mutex
	status service.Status
	holds  []time.Duration
}

func (s *stubService) Status() service.Status {
	return s.status
}

func (s *stubService) PressButton(ctx context.Context, hold time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.holds = append(s.holds, hold)
	return nil
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestRootPress(t *testing.T) {
	svc := &stubService{}
	r := NewRoot(svc)

	m, cmd := r.Update(keyPress('p'))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, []time.Duration{shortPressHold}, svc.holds)
	m, _ = m.Update(msg)
	assert.Contains(t, m.View(), "Pressed for 100ms")

	_, cmd = m.Update(keyPress('l'))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []time.Duration{shortPressHold, longPressHold}, svc.holds)
}

func TestRootQuit(t *testing.T) {
	r := NewRoot(&stubService{})
	_, cmd := r.Update(keyPress('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestRootView(t *testing.T) {
	var frame leds.Frame
	frame[0] = leds.Green.RGB()
	svc := &stubService{status: service.Status{
		Status:      "green",
		EnergyLevel: 5,
		Uptime:      "3 minutes",
		Toggles:     2,
		Failed:      1,
		LastToggle: &service.ToggleStatus{
			Succeeded: false,
			Attempts:  3,
			Error:     "connection refused",
			Ago:       "1 minute ago",
		},
		Session: &service.SessionStatus{ClockedIn: true, Worked: "2h15m0s"},
		Frame:   frame,
	}}
	r := NewRoot(svc)
	view := r.View()
	assert.Contains(t, view, "Wall Clock")
	assert.Contains(t, view, "green")
	assert.Contains(t, view, "5/7")
	assert.Contains(t, view, "2 (1 failed)")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "3 attempt(s)")
	assert.Contains(t, view, "clocked in for 2h15m0s")
}

func TestRootRefreshesStatus(t *testing.T) {
	svc := &stubService{}
	r := NewRoot(svc)
	m, cmd := r.Update(statusMsg(service.Status{Status: "yellow"}))
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "yellow")
}
