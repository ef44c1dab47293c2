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

package timeclock

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/binkynet/WallClock/pkg/service/leds"
)

const (
	// DefaultWorkDay is the length of a standard workday.
	DefaultWorkDay = time.Hour * 8
	// DefaultEnergyUpdateInterval is the interval between energy meter updates.
	DefaultEnergyUpdateInterval = time.Minute * 5

	// completedFraction is the part of a workday that counts as a full day.
	completedFraction = 0.95
)

// Session is the clocked in/out state of the worker.
type Session struct {
	ClockedIn bool `yaml:"clocked_in"`
	// Time of clocking in, zero when clocked out
	Since time.Time `yaml:"since,omitempty"`
}

// Elapsed returns the time spent in the session at the given time.
func (s Session) Elapsed(now time.Time) time.Duration {
	if !s.ClockedIn || s.Since.IsZero() || now.Before(s.Since) {
		return 0
	}
	return now.Sub(s.Since)
}

// Toggle returns the session after a successful clock in/out at the given
// time, together with the time worked in the session that just ended.
func (s Session) Toggle(now time.Time) (Session, time.Duration) {
	if s.ClockedIn {
		return Session{}, s.Elapsed(now)
	}
	return Session{ClockedIn: true, Since: now}, 0
}

// StatusColor returns the status color that shows this session.
func (s Session) StatusColor() leds.StatusColor {
	if s.ClockedIn {
		return leds.Green
	}
	return leds.Red
}

// EnergyLevel returns the energy meter level for a session that has been
// running for elapsed, in a workday of the given length.
// The remaining hours are rounded up, so the meter reaches zero only
// when the workday is over.
func EnergyLevel(workDay, elapsed time.Duration) int {
	if workDay <= 0 || elapsed >= workDay {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	hoursRemaining := math.Ceil((workDay - elapsed).Hours())
	level := int(hoursRemaining * leds.MaxEnergyLevel / workDay.Hours())
	if level > leds.MaxEnergyLevel {
		return leds.MaxEnergyLevel
	}
	return level
}

// CompletedWorkDay returns true when worked covers (almost) a full workday.
func CompletedWorkDay(workDay, worked time.Duration) bool {
	return workDay > 0 && worked.Seconds() >= workDay.Seconds()*completedFraction
}

// SessionStore persists the session across restarts.
type SessionStore interface {
	// Load the stored session. A missing store results in a clocked out session.
	Load() (Session, error)
	// Save the given session.
	Save(s Session) error
}

type fileSessionStore struct {
	path string
}

// NewFileSessionStore creates a SessionStore that keeps the session
// in a YAML file at the given path.
func NewFileSessionStore(path string) SessionStore {
	return &fileSessionStore{path: path}
}

// Load the stored session.
func (fs *fileSessionStore) Load() (Session, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return Session{}, nil
	} else if err != nil {
		return Session{}, errors.Wrapf(err, "Failed to read session file '%s'", fs.path)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Session{}, errors.Wrapf(err, "Failed to parse session file '%s'", fs.path)
	}
	if !s.ClockedIn {
		s.Since = time.Time{}
	}
	return s, nil
}

// Save the given session.
// The file is replaced atomically.
func (fs *fileSessionStore) Save(s Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "Failed to encode session")
	}
	if dir := filepath.Dir(fs.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "Failed to create directory '%s'", dir)
		}
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "Failed to write session file '%s'", tmp)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrapf(err, "Failed to replace session file '%s'", fs.path)
	}
	return nil
}

// tracking returns true when the clocked in/out session is tracked.
func (s *service) tracking() bool {
	return s.WorkDay > 0
}

// loadSession restores the session from the store.
func (s *service) loadSession() {
	if !s.tracking() || s.Sessions == nil {
		return
	}
	session, err := s.Sessions.Load()
	if err != nil {
		s.Log.Warn().Err(err).Msg("Failed to load session, starting clocked out")
		session = Session{}
	}
	s.session = session
	s.Log.Info().
		Bool("clocked-in", session.ClockedIn).
		Time("since", session.Since).
		Msg("Session loaded")
	s.notifySession()
}

// showSession shows the current session on the strip.
// Without session tracking, the status pixel turns green.
func (s *service) showSession(ctx context.Context) {
	if !s.tracking() {
		s.signal(ctx, leds.SetStatus{Color: leds.Green})
		return
	}
	s.signal(ctx, leds.SetStatus{Color: s.session.StatusColor()})
	if s.session.ClockedIn {
		s.showEnergyLevel(ctx, time.Now())
	}
}

// toggleSession flips the session after a successful toggle.
func (s *service) toggleSession(ctx context.Context, now time.Time) {
	log := s.Log
	next, worked := s.session.Toggle(now)
	s.session = next
	if s.Sessions != nil {
		if err := s.Sessions.Save(next); err != nil {
			log.Warn().Err(err).Msg("Failed to save session")
		}
	}
	s.notifySession()

	if next.ClockedIn {
		log.Info().Msg("Clocked in")
		s.showEnergyLevel(ctx, now)
		return
	}
	completed := CompletedWorkDay(s.WorkDay, worked)
	log.Info().
		Dur("worked", worked).
		Bool("completed", completed).
		Msg("Clocked out")
	s.signal(ctx, leds.SetEnergyMeter{Level: 0})
	s.signal(ctx, leds.SetStatus{Color: leds.Red})
	if completed {
		s.signal(ctx, leds.Rainbow{})
	}
}

// updateEnergyMeter refreshes the energy meter when the update interval has passed.
func (s *service) updateEnergyMeter(ctx context.Context, now time.Time) {
	if !s.tracking() || !s.session.ClockedIn || s.EnergyUpdateInterval <= 0 {
		return
	}
	if now.Sub(s.meterUpdatedAt) < s.EnergyUpdateInterval {
		return
	}
	s.showEnergyLevel(ctx, now)
}

// showEnergyLevel shows the remaining part of the workday on the energy meter.
func (s *service) showEnergyLevel(ctx context.Context, now time.Time) {
	level := EnergyLevel(s.WorkDay, s.session.Elapsed(now))
	s.meterUpdatedAt = now
	energyLevelGauge.Set(float64(level))
	s.signal(ctx, leds.SetEnergyMeter{Level: uint8(level)})
}

func (s *service) notifySession() {
	if s.session.ClockedIn {
		clockedInGauge.Set(1)
	} else {
		clockedInGauge.Set(0)
	}
	if cb := s.OnSession; cb != nil {
		cb(s.session)
	}
}
