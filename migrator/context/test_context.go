// Copyright 2019 Balena Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may not
// use this file except in compliance with the License. A copy of the
// License is located at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package context

import (
	"github.com/balena-os/balena-migrate/migrator/cmdexec"
	"github.com/balena-os/balena-migrate/migrator/log"
)

// NewMockDefault returns a context wired to a mock logger and the given
// command table, for use in tests.
func NewMockDefault(commands cmdexec.T) T {
	return Default(log.NewMockLog(), commands)
}
