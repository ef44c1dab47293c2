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

package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	mqttapi "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// QosAtMostOnce represents "QoS 0: At most once delivery".
	QosAtMostOnce = byte(0)
	// QosAsLeastOnce represents "QoS 1: At least once delivery".
	QosAsLeastOnce = byte(1)
	// QosDefault is the QoS used for status messages.
	QosDefault = QosAtMostOnce

	publishTimeout    = time.Millisecond * 200
	disconnectQuiesce = 250
)

var (
	// NotConnectedError is returned when publishing without a connection.
	NotConnectedError = errors.New("not connected")
	// PublishTimeoutError is returned when a message was not delivered in time.
	PublishTimeoutError = errors.New("publish timeout")
)

// Config of the MQTT service.
type Config struct {
	// Address (host:port) of the broker
	BrokerAddress string
	// ID of this client
	ClientID string
	// Prefix of all topics
	TopicPrefix string
}

// Handler is called for every message received on a subscribed topic.
// The topic is passed without prefix.
type Handler func(topic string, payload []byte)

// Service contains the API exposed by the MQTT service.
type Service interface {
	// Connect to the broker
	Connect(ctx context.Context) error
	// Close the service
	Close() error
	// Topic returns the full topic name for the given name.
	Topic(name string) string
	// Publish a JSON encoded message into a topic.
	Publish(ctx context.Context, msg interface{}, topic string, qos byte) error
	// Subscribe to a topic (without prefix).
	Subscribe(ctx context.Context, topic string, qos byte, handler Handler) error
}

type service struct {
	Config
	log    zerolog.Logger
	mutex  sync.Mutex
	client mqttapi.Client
}

// NewService instantiates a new MQTT service.
func NewService(config Config, log zerolog.Logger) Service {
	return &service{
		Config: config,
		log:    log.With().Str("component", "mqtt").Logger(),
	}
}

// Connect to the broker.
func (s *service) Connect(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.client != nil {
		return nil
	}
	opts := mqttapi.NewClientOptions().
		AddBroker("tcp://" + s.BrokerAddress).
		SetClientID(s.ClientID)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.SetDefaultPublishHandler(func(c mqttapi.Client, m mqttapi.Message) {
		// Ignore messages when no subscription match
	})
	opts.SetConnectionLostHandler(func(c mqttapi.Client, err error) {
		s.log.Warn().Err(err).Msg("Connection to MQTT broker lost")
	})

	client := mqttapi.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "Failed to connect to MQTT broker at '%s'", s.BrokerAddress)
	}
	s.client = client
	s.log.Info().Str("broker", s.BrokerAddress).Msg("Connected to MQTT broker")
	return nil
}

// Close the service
func (s *service) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.client != nil {
		s.client.Disconnect(disconnectQuiesce)
		s.client = nil
	}
	return nil
}

// Topic returns the full topic name for the given name.
func (s *service) Topic(name string) string {
	return JoinTopic(s.TopicPrefix, name)
}

func (s *service) getClient() (mqttapi.Client, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.client == nil {
		return nil, errors.WithStack(NotConnectedError)
	}
	return s.client, nil
}

// Publish a JSON encoded message into a topic.
func (s *service) Publish(ctx context.Context, msg interface{}, topic string, qos byte) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}
	payload, err := encodePayload(msg)
	if err != nil {
		return err
	}
	token := client.Publish(s.Topic(topic), qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Wrapf(PublishTimeoutError, "topic '%s'", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "Publish to '%s' failed", topic)
	}
	return nil
}

// Subscribe to a topic (without prefix).
func (s *service) Subscribe(ctx context.Context, topic string, qos byte, handler Handler) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}
	fullTopic := s.Topic(topic)
	prefix := s.Topic("")
	token := client.Subscribe(fullTopic, qos, func(c mqttapi.Client, m mqttapi.Message) {
		handler(strings.TrimPrefix(m.Topic(), prefix), m.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "failed to subscribe to '%s'", fullTopic)
	}
	return nil
}

// JoinTopic joins a prefix and a topic name with a single '/'.
func JoinTopic(prefix, name string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	name = strings.TrimPrefix(name, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// encodePayload encodes a message. Strings and byte slices
// are sent as is, everything else is JSON encoded.
func encodePayload(msg interface{}) ([]byte, error) {
	switch msg := msg.(type) {
	case string:
		return []byte(msg), nil
	case []byte:
		return msg, nil
	default:
		encoded, err := json.Marshal(msg)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to encode message")
		}
		return encoded, nil
	}
}
