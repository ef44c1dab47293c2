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

package logging

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/binkynet/WallClock/pkg/mqtt"
)

const (
	mqttQueueSize = 512
	// maximum number of attempts to make room in a full queue
	mqttMaxDrops = 10

	componentFieldName = "component"
)

// MQTTWriter is a log output that forwards log records to an MQTT topic.
type MQTTWriter interface {
	io.Writer
	Enable(enable bool)
	SetDestination(topic string, mqttService mqtt.Service)
}

// MQTTWriterConfig controls which records are forwarded and how.
type MQTTWriterConfig struct {
	// ID of the clock, added to every record
	HostID string
	// Records below this level are not forwarded
	MinLevel zerolog.Level
}

// logRecord is the message published for a single log line.
type logRecord struct {
	HostID    string                 `json:"host_id"`
	Time      string                 `json:"time,omitempty"`
	Level     string                 `json:"level,omitempty"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type mqttLogger struct {
	config      MQTTWriterConfig
	queue       chan logRecord
	changed     chan struct{}
	mutex       sync.Mutex
	topic       string
	mqttService mqtt.Service
	enable      bool
}

// NewMQTTWriter creates a new MQTT output for logs.
// The MQTT sender is closed when the given context is canceled.
func NewMQTTWriter(ctx context.Context, config MQTTWriterConfig) MQTTWriter {
	l := &mqttLogger{
		config:  config,
		queue:   make(chan logRecord, mqttQueueSize),
		changed: make(chan struct{}, 1),
	}
	go l.run(ctx)
	return l
}

// Write queues the record of the given log line.
// When the queue is full, the oldest records are dropped.
func (l *mqttLogger) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	rec, level := l.parse(p)
	if level < l.config.MinLevel {
		return len(p), nil
	}
	for attempt := 0; attempt < mqttMaxDrops; attempt++ {
		select {
		case l.queue <- rec:
			return len(p), nil
		default:
			// Queue full; Take 1 out and try again
			select {
			case <-l.queue:
				logLinesDroppedTotal.Inc()
			default:
			}
		}
	}
	// Ignore errors
	return len(p), nil
}

// parse a zerolog JSON line into a record.
// Lines that are not JSON are forwarded as a plain message.
func (l *mqttLogger) parse(p []byte) (logRecord, zerolog.Level) {
	rec := logRecord{HostID: l.config.HostID}
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		rec.Message = strings.TrimSpace(string(p))
		return rec, zerolog.NoLevel
	}
	take := func(name string) string {
		v, found := fields[name]
		if !found {
			return ""
		}
		delete(fields, name)
		if s, ok := v.(string); ok {
			return s
		}
		return ""
	}
	rec.Time = take(zerolog.TimestampFieldName)
	rec.Level = take(zerolog.LevelFieldName)
	rec.Message = take(zerolog.MessageFieldName)
	rec.Component = take(componentFieldName)
	if len(fields) > 0 {
		rec.Fields = fields
	}
	level, err := zerolog.ParseLevel(rec.Level)
	if err != nil {
		level = zerolog.NoLevel
	}
	return rec, level
}

func (l *mqttLogger) Enable(enable bool) {
	l.mutex.Lock()
	l.enable = enable
	l.mutex.Unlock()
	l.notify()
}

func (l *mqttLogger) SetDestination(topic string, mqttService mqtt.Service) {
	l.mutex.Lock()
	l.topic = topic
	l.mqttService = mqttService
	l.mutex.Unlock()
	l.notify()
}

// notify the sender of a change in destination or state.
func (l *mqttLogger) notify() {
	select {
	case l.changed <- struct{}{}:
	default:
	}
}

func (l *mqttLogger) run(ctx context.Context) {
	for {
		l.mutex.Lock()
		mqttService := l.mqttService
		topic := l.topic
		enabled := l.enable
		l.mutex.Unlock()

		if !enabled || topic == "" || mqttService == nil {
			select {
			case <-l.changed:
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case rec := <-l.queue:
			pctx, cancel := context.WithTimeout(ctx, time.Second*5)
			if err := mqttService.Publish(pctx, rec, topic, mqtt.QosDefault); err != nil {
				logLinesFailedTotal.Inc()
			}
			cancel()
		case <-l.changed:
			// Reload destination
		case <-ctx.Done():
			return
		}
	}
}
