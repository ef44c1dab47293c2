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
	"fmt"

	"github.com/pkg/errors"
)

const (
	// maxRequestSize is the largest request that will be sent.
	maxRequestSize = 256
	// responseBufferSize is the number of response bytes that are read.
	responseBufferSize = 64
)

var (
	// RequestTooLargeError is returned when the toggle request does
	// not fit in maxRequestSize bytes.
	RequestTooLargeError = errors.New("request too large")
)

// buildRequest creates the toggle request: an empty POST
// to the given path on the given host.
func buildRequest(path, host string) ([]byte, error) {
	request := fmt.Sprintf("POST %s HTTP/1.1\r\nHost: %s\r\nContent-Length: 0\r\nConnection: close\r\n\r\n", path, host)
	if len(request) > maxRequestSize {
		return nil, errors.Wrapf(RequestTooLargeError, "%d bytes", len(request))
	}
	return []byte(request), nil
}
