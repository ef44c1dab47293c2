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

package button

// Event is a completed press gesture.
type Event uint8

const (
	// ShortPress is a press released before the long-press threshold.
	ShortPress Event = iota
	// LongPress is a press held for at least the long-press threshold.
	LongPress
)

func (e Event) String() string {
	switch e {
	case ShortPress:
		return "short-press"
	case LongPress:
		return "long-press"
	default:
		return "unknown"
	}
}
