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
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/WallClock/pkg/events"
	"github.com/binkynet/WallClock/pkg/service/button"
	"github.com/binkynet/WallClock/pkg/service/leds"
)

const (
	// energyLevelAfterToggle is the energy meter level shown
	// after a successful toggle.
	energyLevelAfterToggle = 5
)

var (
	// AllAttemptsFailedError is returned by Toggle when no attempt succeeded.
	AllAttemptsFailedError = errors.New("all attempts failed")
)

// Config of the time clock client.
type Config struct {
	// Host of the time clock API
	Host string
	// Port of the time clock API
	Port int
	// Path of the toggle endpoint
	Path string
	// Timeout of each of connect, write and read
	Timeout time.Duration
	// Maximum number of attempts per toggle
	Retries int
	// Delay between attempts
	RetryDelay time.Duration
	// Maximum time to wait for the network link
	LinkTimeout time.Duration
	// Time to wait before retrying to bring up the link
	LinkRetryInterval time.Duration
	// Maximum time to wait for a button event
	EventTimeout time.Duration
	// Time to sleep between button event checks
	IdleInterval time.Duration
	// Maximum time to wait for the renderer to take a command
	// before sending the next one
	CommandConsumeTimeout time.Duration
	// Name of the wireless network, logged only
	NetworkName string
	// Length of a workday. Zero disables session tracking.
	WorkDay time.Duration
	// Interval between energy meter updates while clocked in
	EnergyUpdateInterval time.Duration
}

// DefaultConfig returns the standard client settings.
func DefaultConfig() Config {
	return Config{
		Port:                  80,
		Path:                  "/api/toggle",
		Timeout:               time.Second * 10,
		Retries:               3,
		LinkTimeout:           time.Second * 30,
		LinkRetryInterval:     time.Second * 30,
		EventTimeout:          time.Second,
		IdleInterval:          time.Millisecond * 100,
		CommandConsumeTimeout: time.Millisecond * 250,
	}
}

// address returns the host:port of the API.
func (c Config) address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Dialer opens network connections.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Outcome describes a completed toggle.
type Outcome struct {
	// Time the toggle completed
	Time time.Time
	// Number of attempts made
	Attempts int
	// Total duration of the toggle
	Duration time.Duration
	// Error of the toggle, nil on success
	Err error
}

// Succeeded returns true when the toggle reached the server.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Dependencies of the time clock client.
type Dependencies struct {
	Log zerolog.Logger
	// Dialer used to connect to the API
	Dialer Dialer
	// Waiter for the network link
	Link LinkWaiter
	// Channel that button events are received on
	Events *events.Signal[button.Event]
	// Channel that LED commands are sent to
	Commands events.Sink[leds.Command]
	// Optional observer of toggle outcomes
	OnOutcome func(Outcome)
	// Optional store of the session, kept in memory when nil
	Sessions SessionStore
	// Optional observer of session changes
	OnSession func(Session)
}

// Service reports button presses to the time clock API.
type Service interface {
	// Run the client until the given context is canceled.
	Run(ctx context.Context) error
	// Toggle performs a single clock in/out toggle with retries.
	Toggle(ctx context.Context) error
}

type service struct {
	Config
	Dependencies

	// Only used from the Run goroutine
	session        Session
	meterUpdatedAt time.Time
}

// NewService creates a new time clock client.
func NewService(conf Config, deps Dependencies) Service {
	deps.Log = deps.Log.With().Str("component", "timeclock").Logger()
	if deps.Dialer == nil {
		deps.Dialer = &net.Dialer{}
	}
	return &service{
		Config:       conf,
		Dependencies: deps,
	}
}

// Run the client until the given context is canceled.
func (s *service) Run(ctx context.Context) error {
	log := s.Log
	log.Info().Msg("Time clock task started")
	s.loadSession()

	// Bring up the network link
	for {
		if err := s.bringUpLink(ctx); err == nil {
			break
		} else if ctx.Err() != nil {
			return nil
		}
		if !sleep(ctx, s.LinkRetryInterval) {
			return nil
		}
	}

	for {
		s.updateEnergyMeter(ctx, time.Now())
		event, err := s.Events.WaitTimeout(ctx, s.EventTimeout)
		if err == nil {
			s.handle(ctx, event)
		} else if ctx.Err() != nil {
			return nil
		} else if !events.IsTimeout(err) {
			return errors.Wrap(err, "WaitTimeout failed")
		}
		if !sleep(ctx, s.IdleInterval) {
			return nil
		}
	}
}

// bringUpLink waits for the network link, showing progress on the status pixel.
func (s *service) bringUpLink(ctx context.Context) error {
	log := s.Log
	s.signal(ctx, leds.SetStatus{Color: leds.Blue})
	if s.Link == nil {
		linkUpGauge.Set(1)
		s.showSession(ctx)
		return nil
	}
	log.Info().Str("ssid", s.NetworkName).Msg("Waiting for network link")
	lctx, cancel := context.WithTimeout(ctx, s.LinkTimeout)
	defer cancel()
	ip, err := s.Link.WaitForLink(lctx)
	if err != nil {
		linkUpGauge.Set(0)
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Network link did not come up")
			s.signal(ctx, leds.SetStatus{Color: leds.Yellow})
		}
		return err
	}
	linkUpGauge.Set(1)
	log.Info().
		Str("address", ip.String()).
		Str("ssid", s.NetworkName).
		Msg("Network link up")
	s.showSession(ctx)
	return nil
}

// handle a single button event.
func (s *service) handle(ctx context.Context, event button.Event) {
	log := s.Log
	switch event {
	case button.ShortPress:
		log.Info().Msg("Handling clock in/out")
		if err := s.Toggle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("Toggle failed")
			s.signal(ctx, leds.SetStatus{Color: leds.Yellow})
		} else if s.tracking() {
			s.toggleSession(ctx, time.Now())
		}
	case button.LongPress:
		log.Info().Msg("Handling long press")
		s.signal(ctx, leds.Rainbow{})
	default:
		log.Warn().Str("event", event.String()).Msg("Unknown button event")
	}
}

// Toggle performs a single clock in/out toggle with retries.
func (s *service) Toggle(ctx context.Context) error {
	log := s.Log.With().Str("address", s.address()).Str("path", s.Path).Logger()
	start := time.Now()
	log.Info().Msg("Making API request")
	s.signal(ctx, leds.SetStatus{Color: leds.Purple})

	attempt := 0
	var lastErr error
	for attempt < s.Retries {
		attempt++
		if attempt > 1 && s.RetryDelay > 0 {
			if !sleep(ctx, s.RetryDelay) {
				break
			}
		}
		log.Debug().Int("attempt", attempt).Int("retries", s.Retries).Msg("HTTP attempt")
		if err := s.attempt(ctx); err != nil {
			attemptsTotal.WithLabelValues("failed").Inc()
			log.Warn().Err(err).Int("attempt", attempt).Msg("Attempt failed")
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		attemptsTotal.WithLabelValues("succeeded").Inc()
		log.Info().Int("attempt", attempt).Msg("API request complete")
		s.signal(ctx, leds.SetStatus{Color: leds.Green})
		s.signal(ctx, leds.SetEnergyMeter{Level: energyLevelAfterToggle})
		s.report(start, attempt, nil)
		return nil
	}
	var err error
	if lastErr != nil {
		err = errors.Wrapf(AllAttemptsFailedError, "after %d attempts (last error: %v)", attempt, lastErr)
	} else {
		err = errors.Wrapf(AllAttemptsFailedError, "after %d attempts", attempt)
	}
	s.report(start, attempt, err)
	return err
}

// attempt performs a single connect, write, read exchange.
// Any outcome of the read counts as success.
func (s *service) attempt(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	conn, err := s.Dialer.DialContext(dialCtx, "tcp", s.address())
	cancel()
	if err != nil {
		return errors.Wrap(err, "connect failed")
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	request, err := buildRequest(s.Path, s.Host)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(s.Timeout)); err != nil {
		return errors.Wrap(err, "SetWriteDeadline failed")
	}
	if _, err := conn.Write(request); err != nil {
		return errors.Wrap(err, "write failed")
	}

	var buf [responseBufferSize]byte
	if err := conn.SetReadDeadline(time.Now().Add(s.Timeout)); err != nil {
		s.Log.Debug().Err(err).Msg("SetReadDeadline failed")
	}
	n, err := conn.Read(buf[:])
	s.Log.Debug().Int("bytes", n).AnErr("read-error", err).Msg("Response received")
	return nil
}

// report the outcome of a toggle.
func (s *service) report(start time.Time, attempts int, err error) {
	duration := time.Since(start)
	toggleDuration.Observe(duration.Seconds())
	if err != nil {
		togglesTotal.WithLabelValues("failed").Inc()
	} else {
		togglesTotal.WithLabelValues("succeeded").Inc()
	}
	if cb := s.OnOutcome; cb != nil {
		cb(Outcome{
			Time:     time.Now(),
			Attempts: attempts,
			Duration: duration,
			Err:      err,
		})
	}
}

// signal sends the given command to the renderer.
// Waits (bounded) for the renderer to take it, so a following
// command does not replace it before it was shown.
func (s *service) signal(ctx context.Context, cmd leds.Command) {
	s.Commands.Signal(cmd)
	if s.CommandConsumeTimeout <= 0 {
		return
	}
	deadline := time.Now().Add(s.CommandConsumeTimeout)
	for s.Commands.Pending() && time.Now().Before(deadline) {
		if !sleep(ctx, time.Millisecond*5) {
			return
		}
	}
}

// sleep waits for the given duration.
// Returns false when the context was canceled first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
