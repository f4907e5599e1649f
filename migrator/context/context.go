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

// Package context defines a type that carries context specific data such as
// the logger and the resolved command table. Passing the table explicitly
// lets tests substitute a fake without touching process-wide state.
package context

import (
	"github.com/balena-os/balena-migrate/migrator/cmdexec"
	"github.com/balena-os/balena-migrate/migrator/log"
)

// T transfers context specific data across different execution boundaries.
// Instead of adding the context to specific structs, we pass Context as the
// first parameter to the methods themselves.
type T interface {
	Log() log.T
	Commands() cmdexec.T
	With(context string) T
	CurrentContext() []string
}

// Default returns a context around the given logger and command table.
func Default(logger log.T, commands cmdexec.T, contextList ...string) T {
	return &defaultContext{
		context:  contextList,
		log:      logger.WithContext(contextList...),
		commands: commands,
	}
}

type defaultContext struct {
	context  []string
	log      log.T
	commands cmdexec.T
}

func (c *defaultContext) With(logContext string) T {
	contextSlice := append(c.context, logContext)
	newContext := &defaultContext{
		context:  contextSlice,
		log:      c.log.WithContext(contextSlice...),
		commands: c.commands,
	}
	return newContext
}

func (c *defaultContext) Log() log.T {
	return c.log
}

func (c *defaultContext) Commands() cmdexec.T {
	return c.commands
}

func (c *defaultContext) CurrentContext() []string {
	return c.context
}
