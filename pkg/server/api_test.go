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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/WallClock/pkg/service"
	"github.com/binkynet/WallClock/pkg/service/button"
)

type stubService struct {
	mutex   sync.Mutex
	status  service.Status
	holds   []time.Duration
	events  []button.Event
	pressed error
}

func (s *stubService) Status() service.Status {
	return s.status
}

func (s *stubService) PressButton(ctx context.Context, hold time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.holds = append(s.holds, hold)
	return s.pressed
}

func (s *stubService) SendEvent(event button.Event) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.events = append(s.events, event)
}

func serve(t *testing.T, svc Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	newRouter(zerolog.Nop(), svc).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, &stubService{}, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestStatus(t *testing.T) {
	svc := &stubService{status: service.Status{
		HostID:      "abc",
		Status:      "green",
		EnergyLevel: 5,
	}}
	rec := serve(t, svc, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "abc", got["host_id"])
	assert.Equal(t, "green", got["status"])
	assert.Equal(t, float64(5), got["energy_level"])
}

func TestButtonDefaultsToShortPress(t *testing.T) {
	svc := &stubService{}
	rec := serve(t, svc, http.MethodPost, "/api/v1/button", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []button.Event{button.ShortPress}, svc.events)
	assert.Empty(t, svc.holds)
}

func TestButtonEvent(t *testing.T) {
	svc := &stubService{}
	rec := serve(t, svc, http.MethodPost, "/api/v1/button", `{"event":"long-press"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(t, svc, http.MethodPost, "/api/v1/button?event=toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []button.Event{button.LongPress, button.ShortPress}, svc.events)

	rec = serve(t, svc, http.MethodPost, "/api/v1/button", `{"event":"reboot"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, svc.events, 2)
}

func TestButtonHold(t *testing.T) {
	svc := &stubService{}
	rec := serve(t, svc, http.MethodPost, "/api/v1/button?hold=150ms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(t, svc, http.MethodPost, "/api/v1/button", `{"hold":"3s"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []time.Duration{150 * time.Millisecond, 3 * time.Second}, svc.holds)
	assert.Empty(t, svc.events)

	for _, hold := range []string{"soon", "-1s", "1m"} {
		rec = serve(t, svc, http.MethodPost, "/api/v1/button?hold="+hold, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, hold)
	}
	assert.Len(t, svc.holds, 2)
}

func TestButtonPressInProgress(t *testing.T) {
	svc := &stubService{pressed: errors.WithStack(service.PressInProgressError)}
	rec := serve(t, svc, http.MethodPost, "/api/v1/button?hold=100ms", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	svc.pressed = errors.New("line busy")
	rec = serve(t, svc, http.MethodPost, "/api/v1/button?hold=100ms", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
