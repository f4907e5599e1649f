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

package cmdexec

import (
	"github.com/stretchr/testify/mock"
)

// Mock stands for a mocked command table.
type Mock struct {
	mock.Mock
}

// NewMockCommands returns a mocked command table with no expectations set.
func NewMockCommands() *Mock {
	return new(Mock)
}

// Path mocks the Path function.
func (_m *Mock) Path(name string) (string, error) {
	ret := _m.Called(name)
	return ret.String(0), ret.Error(1)
}

// Run mocks the Run function.
func (_m *Mock) Run(name string, args []string, trimStdout bool) (CmdResult, error) {
	ret := _m.Called(name, args, trimStdout)
	return ret.Get(0).(CmdResult), ret.Error(1)
}

// HasCommand mocks the HasCommand function.
func (_m *Mock) HasCommand(name string) bool {
	ret := _m.Called(name)
	return ret.Bool(0)
}
