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

package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostID(t *testing.T) {
	id, err := CreateHostID()
	require.NoError(t, err)
	assert.Len(t, id, hostIDLength)

	again, err := CreateHostID()
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestHardwareKeyIsOrderIndependent(t *testing.T) {
	a := hardwareKey([]string{"b8:27:eb:00:00:02", "b8:27:eb:00:00:01"})
	b := hardwareKey([]string{"b8:27:eb:00:00:01", "b8:27:eb:00:00:02"})
	assert.Equal(t, a, b)
	assert.Equal(t, hashID(a), hashID(b))
	assert.NotEqual(t, hashID(a), hashID(hardwareKey(nil)))
}
