//    Copyright 2021 Ewout Prangsma
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
	"github.com/binkynet/WallClock/pkg/metrics"
)

const (
	subSystem = "service"
)

var (
	// Total number of heartbeats
	heartbeatsTotal = metrics.MustRegisterCounter(subSystem,
		"heartbeats_total",
		"Total number of heartbeats")
	// Total number of presses requested remotely per source
	remotePressesTotal = metrics.MustRegisterCounterVec(subSystem,
		"remote_presses_total",
		"Total number of remotely requested presses",
		"source")
	// Total number of MQTT publications per topic
	mqttPublicationsTotal = metrics.MustRegisterCounterVec(subSystem,
		"mqtt_publications_total",
		"Total number of MQTT publications per topic",
		"topic")
	// Total number of MQTT publications dropped because the queue was full
	mqttPublicationsDroppedTotal = metrics.MustRegisterCounter(subSystem,
		"mqtt_publications_dropped_total",
		"Total number of dropped MQTT publications")
	// Total number of failed MQTT publications
	mqttPublishErrorsTotal = metrics.MustRegisterCounter(subSystem,
		"mqtt_publish_errors_total",
		"Total number of failed MQTT publications")
)
