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
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/binkynet/WallClock/pkg/service/leds"
	"github.com/binkynet/WallClock/pkg/service/timeclock"
)

const (
	// statusAnimation is the status reported while the status pixel
	// shows no status color.
	statusAnimation = "animation"
)

// Status is a snapshot of the state of the worker.
type Status struct {
	HostID    string    `json:"host_id"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
	// Name of the status color or "animation"
	Status      string        `json:"status"`
	EnergyLevel int           `json:"energy_level"`
	Pixels      []string      `json:"pixels"`
	Frames      uint64        `json:"frames"`
	LastEvent   *EventStatus  `json:"last_event,omitempty"`
	Toggles     int           `json:"toggles"`
	Failed      int           `json:"failed_toggles"`
	LastToggle  *ToggleStatus `json:"last_toggle,omitempty"`
	// Clocked in/out session, nil when not tracked
	Session *SessionStatus `json:"session,omitempty"`
	// Last frame shown (uncorrected)
	Frame leds.Frame `json:"-"`
}

// EventStatus describes the last button event.
type EventStatus struct {
	Event  string    `json:"event"`
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
	Ago    string    `json:"ago"`
}

// ToggleStatus describes the last toggle.
type ToggleStatus struct {
	Time      time.Time `json:"time"`
	Ago       string    `json:"ago"`
	Succeeded bool      `json:"succeeded"`
	Attempts  int       `json:"attempts"`
	Duration  string    `json:"duration"`
	Error     string    `json:"error,omitempty"`
}

// SessionStatus describes the clocked in/out session.
type SessionStatus struct {
	ClockedIn bool       `json:"clocked_in"`
	Since     *time.Time `json:"since,omitempty"`
	// Time worked in the current session
	Worked string `json:"worked,omitempty"`
}

// statusTracker builds Status snapshots from hub updates.
type statusTracker struct {
	mutex      sync.Mutex
	hostID     string
	version    string
	startedAt  time.Time
	lastSeq    uint64
	frames     uint64
	frame      leds.Frame
	lastEvent  *ButtonUpdate
	toggles    int
	failed     int
	lastToggle *timeclock.Outcome
	sessionSeq uint64
	session    *timeclock.Session
}

func newStatusTracker(hostID, version string, startedAt time.Time) *statusTracker {
	return &statusTracker{
		hostID:    hostID,
		version:   version,
		startedAt: startedAt,
	}
}

// onFrame records a frame. Updates may arrive out of order;
// older frames are counted but do not replace newer ones.
func (t *statusTracker) onFrame(u FrameUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.frames++
	if u.Seq > t.lastSeq {
		t.lastSeq = u.Seq
		t.frame = u.Frame
	}
}

func (t *statusTracker) onButton(u ButtonUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.lastEvent == nil || !u.Time.Before(t.lastEvent.Time) {
		t.lastEvent = &u
	}
}

func (t *statusTracker) onToggle(u ToggleUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.toggles++
	if !u.Outcome.Succeeded() {
		t.failed++
	}
	if t.lastToggle == nil || !u.Outcome.Time.Before(t.lastToggle.Time) {
		outcome := u.Outcome
		t.lastToggle = &outcome
	}
}

// onSession records a session change. Older updates are ignored.
func (t *statusTracker) onSession(u SessionUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if u.Seq > t.sessionSeq {
		t.sessionSeq = u.Seq
		session := u.Session
		t.session = &session
	}
}

// Status returns a snapshot at the given time.
func (t *statusTracker) Status(now time.Time) Status {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	result := Status{
		HostID:      t.hostID,
		Version:     t.version,
		StartedAt:   t.startedAt,
		Uptime:      strings.TrimSpace(humanize.RelTime(t.startedAt, now, "", "")),
		Status:      statusAnimation,
		EnergyLevel: leds.EnergyLevelOf(t.frame),
		Frames:      t.frames,
		Toggles:     t.toggles,
		Failed:      t.failed,
		Frame:       t.frame,
	}
	if c, found := leds.StatusOf(t.frame); found {
		result.Status = c.String()
	}
	for _, c := range t.frame {
		result.Pixels = append(result.Pixels, c.Hex())
	}
	if e := t.lastEvent; e != nil {
		result.LastEvent = &EventStatus{
			Event:  e.Event.String(),
			Source: e.Source,
			Time:   e.Time,
			Ago:    humanize.RelTime(e.Time, now, "ago", "from now"),
		}
	}
	if o := t.lastToggle; o != nil {
		ts := &ToggleStatus{
			Time:      o.Time,
			Ago:       humanize.RelTime(o.Time, now, "ago", "from now"),
			Succeeded: o.Succeeded(),
			Attempts:  o.Attempts,
			Duration:  o.Duration.Round(time.Millisecond).String(),
		}
		if o.Err != nil {
			ts.Error = o.Err.Error()
		}
		result.LastToggle = ts
	}
	if s := t.session; s != nil {
		ss := &SessionStatus{ClockedIn: s.ClockedIn}
		if s.ClockedIn {
			since := s.Since
			ss.Since = &since
			ss.Worked = s.Elapsed(now).Round(time.Second).String()
		}
		result.Session = ss
	}
	return result
}
