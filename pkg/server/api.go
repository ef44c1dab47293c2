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

package server

import (
	"context"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/binkynet/WallClock/pkg/service"
	"github.com/binkynet/WallClock/pkg/service/button"
)

const (
	// Upper bound of a simulated press
	maxHold = time.Second * 10
)

// Service is the part of the worker exposed over HTTP.
type Service interface {
	Status() service.Status
	PressButton(ctx context.Context, hold time.Duration) error
	SendEvent(event button.Event)
}

// buttonRequest is the body of a button request.
// Either Event or Hold is set.
type buttonRequest struct {
	Event string `json:"event,omitempty"`
	// Hold duration such as "100ms" or "3s"
	Hold string `json:"hold,omitempty"`
}

type buttonResponse struct {
	Event string `json:"event,omitempty"`
	Hold  string `json:"hold,omitempty"`
}

// newRouter builds the HTTP routes of the server.
func newRouter(log zerolog.Logger, svc Service) *echo.Echo {
	h := &handlers{log: log, service: svc}
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.GET("/health", h.health)
	router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	router.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	router.GET("/api/v1/status", h.status)
	router.POST("/api/v1/button", h.button)
	return router
}

type handlers struct {
	log     zerolog.Logger
	service Service
}

func (h *handlers) health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *handlers) status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status())
}

// button handles a remote button press.
// A request with an event injects it directly, a request with a hold
// duration presses the button for that long.
func (h *handlers) button(c echo.Context) error {
	var req buttonRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if hold := c.QueryParam("hold"); hold != "" {
		req.Hold = hold
	}
	if event := c.QueryParam("event"); event != "" {
		req.Event = event
	}
	switch {
	case req.Hold != "":
		hold, err := time.ParseDuration(req.Hold)
		if err != nil || hold <= 0 || hold > maxHold {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hold duration")
		}
		if err := h.service.PressButton(c.Request().Context(), hold); err != nil {
			if errors.Cause(err) == service.PressInProgressError {
				return echo.NewHTTPError(http.StatusConflict, err.Error())
			}
			h.log.Warn().Err(err).Msg("Button press failed")
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, buttonResponse{Hold: hold.String()})
	default:
		if req.Event == "" {
			req.Event = button.ShortPress.String()
		}
		event, err := service.ParseCommand(req.Event)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.service.SendEvent(event)
		return c.JSON(http.StatusOK, buttonResponse{Event: event.String()})
	}
}
