//    Copyright 2017-2022 Ewout Prangsma
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

package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/binkynet/WallClock/pkg/environment"
	"github.com/binkynet/WallClock/pkg/events"
	"github.com/binkynet/WallClock/pkg/mqtt"
	"github.com/binkynet/WallClock/pkg/service/bridge"
	"github.com/binkynet/WallClock/pkg/service/button"
	"github.com/binkynet/WallClock/pkg/service/leds"
	"github.com/binkynet/WallClock/pkg/service/timeclock"
	"github.com/binkynet/WallClock/pkg/service/util"
	"github.com/binkynet/WallClock/pkg/ws2812"
)

const (
	sourceButton = "button"
	sourceRemote = "remote"
)

var (
	// PressInProgressError is returned when a simulated press is
	// requested while another one is being held.
	PressInProgressError = errors.New("press in progress")
)

// Service runs all tasks of the worker.
type Service interface {
	// Run the worker until the given context is canceled.
	Run(ctx context.Context) error
	// Status returns a snapshot of the state of the worker.
	Status() Status
	// PressButton presses the button for the given duration.
	// On a virtual bridge the press is simulated on the button line,
	// otherwise the resulting event is injected directly.
	PressButton(ctx context.Context, hold time.Duration) error
	// SendEvent injects a button event as if the button was pressed.
	SendEvent(event button.Event)
	// SubscribeFrames registers a frame observer.
	// Call the returned function to unsubscribe.
	SubscribeFrames(cb func(FrameUpdate)) func()
}

type Config struct {
	ProgramVersion string
	HostID         string // Only used if not empty
	Button         button.Config
	LEDs           leds.Config
	Client         timeclock.Config
	// Pulse timing of the LED strip
	Timing ws2812.Timing
	// Interval of heartbeat log messages
	HeartbeatInterval time.Duration
}

type Dependencies struct {
	Logger zerolog.Logger
	Bridge bridge.API
	// Waiter for the network link (nil to skip)
	Link timeclock.LinkWaiter
	// Dialer for the time clock API (nil for default)
	Dialer timeclock.Dialer
	// MQTT service (nil to disable)
	MQTT mqtt.Service
	// Store of the clocked in/out session (nil to keep it in memory)
	Sessions timeclock.SessionStore
}

type service struct {
	Config
	Dependencies

	hostID       string
	startedAt    time.Time
	buttonEvents *events.Signal[button.Event]
	ledCommands  *events.Signal[leds.Command]
	hub          *hub
	status       *statusTracker
	pressSem     *semaphore.Weighted
}

// NewService creates a Service instance and returns it.
func NewService(conf Config, deps Dependencies) (Service, error) {
	deps.Logger = deps.Logger.With().Str("component", "service").Logger()
	// Create host ID
	hostID := conf.HostID
	if hostID == "" {
		var err error
		hostID, err = environment.CreateHostID()
		if err != nil {
			return nil, errors.Wrap(err, "Failed to create host ID")
		}
	}
	if conf.Timing == (ws2812.Timing{}) {
		conf.Timing = ws2812.DefaultTiming
	}
	if conf.HeartbeatInterval == 0 {
		conf.HeartbeatInterval = time.Second * 10
	}
	deps.Logger = deps.Logger.With().Str("host-id", hostID).Logger()
	startedAt := time.Now()
	s := &service{
		Config:       conf,
		Dependencies: deps,
		hostID:       hostID,
		startedAt:    startedAt,
		buttonEvents: events.NewSignal[button.Event](),
		ledCommands:  events.NewSignal[leds.Command](),
		hub:          newHub(),
		status:       newStatusTracker(hostID, conf.ProgramVersion, startedAt),
		pressSem:     semaphore.NewWeighted(1),
	}
	s.hub.SubscribeFrames(s.status.onFrame)
	s.hub.SubscribeButton(s.status.onButton)
	s.hub.SubscribeToggles(s.status.onToggle)
	s.hub.SubscribeSessions(s.status.onSession)
	return s, nil
}

// Run the worker until the given context is canceled.
func (s *service) Run(ctx context.Context) error {
	log := s.Logger
	defer func() {
		if err := s.Bridge.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close bridge")
		}
	}()
	if s.MQTT != nil {
		defer s.MQTT.Close()
	}

	pin, err := s.Bridge.Button()
	if err != nil {
		return errors.Wrap(err, "Failed to open button")
	}
	strip, err := s.Bridge.LedStrip()
	if err != nil {
		return errors.Wrap(err, "Failed to open LED strip")
	}

	btn := button.NewService(s.Config.Button, button.Dependencies{
		Log:    log,
		Pin:    pin,
		Events: s.buttonEvents,
		OnEvent: func(event button.Event) {
			s.hub.publishButton(event, sourceButton)
		},
	})
	renderer := leds.NewService(s.LEDs, leds.Dependencies{
		Log:      log,
		Strip:    strip,
		Commands: s.ledCommands,
		Timing:   s.Timing,
		OnFrame:  s.hub.publishFrame,
	})
	client := timeclock.NewService(s.Client, timeclock.Dependencies{
		Log:       log,
		Dialer:    s.Dialer,
		Link:      s.Link,
		Events:    s.buttonEvents,
		Commands:  s.ledCommands,
		OnOutcome: s.hub.publishToggle,
		Sessions:  s.Sessions,
		OnSession: s.hub.publishSession,
	})

	log.Info().
		Str("version", s.ProgramVersion).
		Str("api", s.Client.Host).
		Dur("workday", s.Client.WorkDay).
		Msg("Starting worker")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return util.UntilCanceled(ctx, log, "button", func() error { return btn.Run(ctx) })
	})
	g.Go(func() error {
		return util.UntilCanceled(ctx, log, "leds", func() error { return renderer.Run(ctx) })
	})
	g.Go(func() error {
		return util.UntilCanceled(ctx, log, "timeclock", func() error { return client.Run(ctx) })
	})
	g.Go(func() error {
		s.heartbeat(ctx)
		return nil
	})
	if s.MQTT != nil {
		publisher := newMQTTPublisher(log, s.MQTT, s.hub, s.SendEvent)
		g.Go(func() error {
			return util.UntilCanceled(ctx, log, "mqtt-publisher", func() error { return publisher.Run(ctx) })
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "Wait failed")
	}
	log.Info().Msg("Worker stopped")
	return nil
}

// heartbeat logs a message at a fixed interval until the context is canceled.
func (s *service) heartbeat(ctx context.Context) {
	for {
		select {
		case <-time.After(s.HeartbeatInterval):
			heartbeatsTotal.Inc()
			status := s.Status()
			s.Logger.Debug().
				Str("uptime", status.Uptime).
				Str("status", status.Status).
				Int("energy", status.EnergyLevel).
				Msg("Heartbeat")
		case <-ctx.Done():
			return
		}
	}
}

// Status returns a snapshot of the state of the worker.
func (s *service) Status() Status {
	return s.status.Status(time.Now())
}

// PressButton presses the button for the given duration.
func (s *service) PressButton(ctx context.Context, hold time.Duration) error {
	if !s.pressSem.TryAcquire(1) {
		return errors.WithStack(PressInProgressError)
	}
	defer s.pressSem.Release(1)

	remotePressesTotal.WithLabelValues("simulated").Inc()
	if sim, ok := s.Bridge.(bridge.Simulator); ok {
		return sim.PressButton(ctx, hold)
	}
	event := button.ShortPress
	if hold >= s.Config.Button.LongPress {
		event = button.LongPress
	}
	s.SendEvent(event)
	return nil
}

// SendEvent injects a button event as if the button was pressed.
func (s *service) SendEvent(event button.Event) {
	remotePressesTotal.WithLabelValues("event").Inc()
	s.Logger.Info().Str("event", event.String()).Msg("Injecting button event")
	s.buttonEvents.Signal(event)
	s.hub.publishButton(event, sourceRemote)
}

// SubscribeFrames registers a frame observer.
func (s *service) SubscribeFrames(cb func(FrameUpdate)) func() {
	return s.hub.SubscribeFrames(cb)
}
