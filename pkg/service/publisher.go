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
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/WallClock/pkg/mqtt"
	"github.com/binkynet/WallClock/pkg/service/button"
	"github.com/binkynet/WallClock/pkg/service/leds"
)

const (
	topicToggle        = "toggle"
	topicStatus        = "status"
	topicSession       = "session"
	topicButtonCommand = "button/command"

	publishQueueSize = 64
)

var (
	// InvalidCommandError is returned for unknown remote button commands.
	InvalidCommandError = errors.New("invalid command")
)

type toggleMessage struct {
	Time       time.Time `json:"time"`
	Succeeded  bool      `json:"succeeded"`
	Attempts   int       `json:"attempts"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

type statusMessage struct {
	Status      string `json:"status"`
	EnergyLevel int    `json:"energy_level"`
}

type sessionMessage struct {
	ClockedIn bool       `json:"clocked_in"`
	Since     *time.Time `json:"since,omitempty"`
}

type publication struct {
	topic string
	msg   interface{}
}

// mqttPublisher publishes toggle outcomes, status and session changes
// and receives remote button commands.
type mqttPublisher struct {
	log       zerolog.Logger
	mqtt      mqtt.Service
	hub       *hub
	onCommand func(button.Event)

	// Only accessed from Run
	lastSeq        uint64
	lastStatus     *statusMessage
	lastSessionSeq uint64
}

func newMQTTPublisher(log zerolog.Logger, mqttService mqtt.Service, h *hub, onCommand func(button.Event)) *mqttPublisher {
	return &mqttPublisher{
		log:       log.With().Str("component", "mqtt-publisher").Logger(),
		mqtt:      mqttService,
		hub:       h,
		onCommand: onCommand,
	}
}

// Run the publisher until the given context is canceled.
func (p *mqttPublisher) Run(ctx context.Context) error {
	log := p.log
	if err := p.mqtt.Connect(ctx); err != nil {
		return err
	}
	if err := p.mqtt.Subscribe(ctx, topicButtonCommand, mqtt.QosAsLeastOnce, p.onMessage); err != nil {
		return err
	}

	queue := make(chan publication, publishQueueSize)
	enqueue := func(topic string, msg interface{}) {
		select {
		case queue <- publication{topic: topic, msg: msg}:
		default:
			mqttPublicationsDroppedTotal.Inc()
		}
	}
	statusQueue := make(chan FrameUpdate, publishQueueSize)
	defer p.hub.SubscribeToggles(func(u ToggleUpdate) {
		o := u.Outcome
		msg := toggleMessage{
			Time:       o.Time,
			Succeeded:  o.Succeeded(),
			Attempts:   o.Attempts,
			DurationMs: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			msg.Error = o.Err.Error()
		}
		enqueue(topicToggle, msg)
	})()
	defer p.hub.SubscribeFrames(func(u FrameUpdate) {
		select {
		case statusQueue <- u:
		default:
			// Newer frames follow
		}
	})()

	sessionQueue := make(chan SessionUpdate, publishQueueSize)
	defer p.hub.SubscribeSessions(func(u SessionUpdate) {
		select {
		case sessionQueue <- u:
		default:
			mqttPublicationsDroppedTotal.Inc()
		}
	})()

	log.Info().Msg("MQTT publisher started")
	for {
		select {
		case pub := <-queue:
			p.publish(ctx, pub)
		case u := <-statusQueue:
			if msg, changed := p.statusChanged(u); changed {
				p.publish(ctx, publication{topic: topicStatus, msg: msg})
			}
		case u := <-sessionQueue:
			if msg, changed := p.sessionChanged(u); changed {
				p.publish(ctx, publication{topic: topicSession, msg: msg})
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *mqttPublisher) publish(ctx context.Context, pub publication) {
	if err := p.mqtt.Publish(ctx, pub.msg, pub.topic, mqtt.QosDefault); err != nil {
		mqttPublishErrorsTotal.Inc()
		p.log.Debug().Err(err).Str("topic", pub.topic).Msg("Publish failed")
		return
	}
	mqttPublicationsTotal.WithLabelValues(pub.topic).Inc()
}

// statusChanged returns the status message for the given frame and
// true when it differs from the last published status.
// Animation frames and stale frames never change the status.
func (p *mqttPublisher) statusChanged(u FrameUpdate) (statusMessage, bool) {
	if u.Seq <= p.lastSeq {
		return statusMessage{}, false
	}
	p.lastSeq = u.Seq
	color, found := leds.StatusOf(u.Frame)
	if !found {
		return statusMessage{}, false
	}
	msg := statusMessage{
		Status:      color.String(),
		EnergyLevel: leds.EnergyLevelOf(u.Frame),
	}
	if p.lastStatus != nil && *p.lastStatus == msg {
		return msg, false
	}
	p.lastStatus = &msg
	return msg, true
}

// sessionChanged returns the session message for the given update and
// true unless the update is older than the last published one.
func (p *mqttPublisher) sessionChanged(u SessionUpdate) (sessionMessage, bool) {
	if u.Seq <= p.lastSessionSeq {
		return sessionMessage{}, false
	}
	p.lastSessionSeq = u.Seq
	msg := sessionMessage{ClockedIn: u.Session.ClockedIn}
	if u.Session.ClockedIn {
		since := u.Session.Since
		msg.Since = &since
	}
	return msg, true
}

// onMessage handles a remote button command.
func (p *mqttPublisher) onMessage(topic string, payload []byte) {
	event, err := ParseCommand(string(payload))
	if err != nil {
		p.log.Warn().Err(err).Str("topic", topic).Msg("Ignoring remote command")
		return
	}
	p.log.Info().Str("event", event.String()).Msg("Remote button command")
	p.onCommand(event)
}

// ParseCommand parses a remote button command such as "press" or "long-press".
func ParseCommand(cmd string) (button.Event, error) {
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	switch cmd {
	case "press", "short", "short-press", "toggle":
		return button.ShortPress, nil
	case "long", "long-press", "rainbow":
		return button.LongPress, nil
	}
	return button.ShortPress, errors.Wrapf(InvalidCommandError, "'%s'", cmd)
}
