//    Copyright 2017 Ewout Prangsma
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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/WallClock/pkg/config"
	"github.com/binkynet/WallClock/pkg/environment"
	"github.com/binkynet/WallClock/pkg/logging"
	"github.com/binkynet/WallClock/pkg/mqtt"
	"github.com/binkynet/WallClock/pkg/server"
	"github.com/binkynet/WallClock/pkg/service"
	"github.com/binkynet/WallClock/pkg/service/bridge"
	"github.com/binkynet/WallClock/pkg/service/timeclock"
	"github.com/binkynet/WallClock/pkg/ui"
	"github.com/binkynet/WallClock/pkg/ws2812"
)

const (
	projectName       = "BinkyNet Wall Clock"
	defaultHTTPPort   = 7129
	defaultSSHPort    = 7122
	linkCheckInterval = time.Millisecond * 100
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	var levelFlag string
	var configPath string
	var bridgeType string
	var serverHost string
	var httpPort int
	var sshPort int
	var apiHost string
	var apiPort int
	var apiPath string
	var mqttBroker string

	pflag.StringVarP(&levelFlag, "level", "l", "info", "Set log level")
	pflag.StringVarP(&configPath, "config", "c", "", "Path of the configuration file")
	pflag.StringVarP(&bridgeType, "bridge", "b", "", "Type of bridge to use (rpi|virtual), detected when empty")
	pflag.StringVar(&serverHost, "host", "0.0.0.0", "Host address the HTTP & SSH servers will listen on")
	pflag.IntVar(&httpPort, "http-port", defaultHTTPPort, "Port the HTTP server will listen on")
	pflag.IntVar(&sshPort, "ssh-port", defaultSSHPort, "Port the SSH console will listen on (0 to disable)")
	pflag.StringVar(&apiHost, "api-host", "", "Host of the time clock API (overrides configuration)")
	pflag.IntVar(&apiPort, "api-port", 0, "Port of the time clock API (overrides configuration)")
	pflag.StringVar(&apiPath, "api-path", "", "Path of the toggle request (overrides configuration)")
	pflag.StringVar(&mqttBroker, "mqtt-broker", "", "Address (host:port) of the MQTT broker (overrides configuration)")
	pflag.Parse()

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Prepare logging
	logOutput := logging.NewMultiWriter(zerolog.ConsoleWriter{Out: os.Stderr})
	logger := zerolog.New(logOutput).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(levelFlag)
	if err != nil {
		Exitf("Invalid log level '%s': %v\n", levelFlag, err)
	}
	logger = logger.Level(level)

	// Load configuration
	conf, err := loadConfig(configPath, func(conf *config.Config) {
		if apiHost != "" {
			conf.Network.APIHost = apiHost
		}
		if apiPort != 0 {
			conf.Network.APIPort = apiPort
		}
		if apiPath != "" {
			conf.Network.APIPath = apiPath
		}
		if mqttBroker != "" {
			conf.MQTT.Broker = mqttBroker
		}
	})
	if config.IsInvalidConfig(err) {
		Exitf("Invalid configuration: %v\n", err)
	} else if err != nil {
		Exitf("Failed to load configuration: %v\n", err)
	}

	hostID, err := environment.CreateHostID()
	if err != nil {
		Exitf("Failed to create host ID: %v\n", err)
	}

	// Prepare bridge
	if bridgeType == "" {
		bridgeType = environment.AutoDetectBridgeType(logger)
	}
	br, err := newBridge(bridgeType, conf)
	if err != nil {
		Exitf("Failed to initialize bridge: %v\n", err)
	}

	// Prepare MQTT
	var mqttSvc mqtt.Service
	if conf.MQTT.Broker != "" {
		mqttSvc, err = newMQTT(ctx, conf, hostID, logger, logOutput)
		if err != nil {
			Exitf("Failed to initialize MQTT: %v\n", err)
		}
	}

	svc, err := service.NewService(service.Config{
		ProgramVersion: projectVersion,
		HostID:         hostID,
		Button:         conf.ButtonConfig(),
		LEDs:           conf.LEDConfig(),
		Client:         conf.ClientConfig(),
		Timing:         ws2812.DefaultTiming,
	}, service.Dependencies{
		Logger:   logger,
		Bridge:   br,
		Link:     timeclock.NewInterfaceLinkWaiter(linkCheckInterval),
		MQTT:     mqttSvc,
		Sessions: conf.SessionStore(),
	})
	if err != nil {
		Exitf("Failed to initialize Service: %v\n", err)
	}

	httpServer, err := server.New(server.Config{
		Host:     serverHost,
		HTTPPort: httpPort,
		SSHPort:  sshPort,
	}, logger, ui.New(svc), svc)
	if err != nil {
		Exitf("Failed to initialize Server: %v\n", err)
	}

	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	fmt.Printf("Starting %s (version %s build %s, bridge %s)\n", projectName, projectVersion, projectBuild, bridgeType)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return httpServer.Run(ctx) })
	if err := g.Wait(); err != nil && errors.Cause(err) != context.Canceled {
		Exitf("Service run failed: %#v", err)
	}
}

// loadConfig loads the configuration file, applies the given overrides
// and validates the result.
func loadConfig(path string, override func(*config.Config)) (config.Config, error) {
	conf, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	override(&conf)
	if err := conf.Validate(); err != nil {
		return config.Config{}, err
	}
	return conf, nil
}

// newBridge creates the hardware bridge of the given type.
func newBridge(bridgeType string, conf config.Config) (bridge.API, error) {
	switch bridgeType {
	case environment.BridgeTypeRaspberryPi:
		br, err := bridge.NewRaspberryPiBridge(conf.RaspberryPiConfig())
		if err != nil {
			return nil, errors.Wrap(err, "Failed to initialize Raspberry Pi Bridge")
		}
		return br, nil
	case environment.BridgeTypeVirtual:
		return bridge.NewVirtualBridge(ws2812.DefaultTiming), nil
	default:
		return nil, errors.Errorf("Unknown bridge type '%s' (%s|%s)", bridgeType,
			environment.BridgeTypeRaspberryPi, environment.BridgeTypeVirtual)
	}
}

// newMQTT connects to the configured broker and forwards logs to it
// when requested.
func newMQTT(ctx context.Context, conf config.Config, hostID string, logger zerolog.Logger, logOutput logging.MultiWriter) (mqtt.Service, error) {
	clientID := conf.MQTT.ClientID
	if clientID == "" {
		clientID = "wallclock-" + hostID
	}
	svc := mqtt.NewService(mqtt.Config{
		BrokerAddress: conf.MQTT.Broker,
		ClientID:      clientID,
		TopicPrefix:   conf.MQTT.TopicPrefix,
	}, logger)
	if err := svc.Connect(ctx); err != nil {
		return nil, errors.Wrap(err, "Failed to connect to MQTT broker")
	}
	if conf.MQTT.ForwardLogs {
		minLevel, err := zerolog.ParseLevel(conf.MQTT.ForwardLevel)
		if err != nil {
			return nil, errors.Wrap(err, "Invalid forward level")
		}
		if minLevel == zerolog.NoLevel {
			minLevel = zerolog.TraceLevel
		}
		w := logging.NewMQTTWriter(ctx, logging.MQTTWriterConfig{
			HostID:   hostID,
			MinLevel: minLevel,
		})
		w.SetDestination(svc.Topic("logs"), svc)
		w.Enable(true)
		logOutput.Add(w)
	}
	return svc, nil
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
