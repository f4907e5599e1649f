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

package config

import (
	"strings"

	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// MigMode is the top-level behavioral switch controlling how much of the
// migration actually executes.
type MigMode int

const (
	// ModeInvalid is the uninitialized mode. It is never a legal terminal
	// value, a configuration resolving to it fails validation.
	ModeInvalid MigMode = iota
	// ModeAgent defers migration decisions to a remote controller.
	ModeAgent
	// ModeImmediate executes the migration without further confirmation.
	ModeImmediate
	// ModePretend performs every check but stops short of destructive action.
	ModePretend
)

func (m MigMode) String() string {
	switch m {
	case ModeAgent:
		return "agent"
	case ModeImmediate:
		return "immediate"
	case ModePretend:
		return "pretend"
	default:
		return "invalid"
	}
}

// ParseMigMode parses a mode value from the command line or the config
// document.
func ParseMigMode(value string) (MigMode, error) {
	switch strings.ToLower(value) {
	case "agent":
		return ModeAgent, nil
	case "immediate":
		return ModeImmediate, nil
	case "pretend":
		return ModePretend, nil
	default:
		return ModeInvalid, migerr.New(migerr.KindInvalidParameter,
			"invalid value for migrate mode '%s'", value)
	}
}

// UnmarshalYAML parses the migrate.mode key.
func (m *MigMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var value string
	if err := unmarshal(&value); err != nil {
		return err
	}
	mode, err := ParseMigMode(value)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// FailMode selects what stage2 does when the migration fails.
type FailMode int

const (
	// FailModeReboot reboots back into the old system.
	FailModeReboot FailMode = iota
	// FailModeRescueShell drops into a rescue shell.
	FailModeRescueShell
)

func (m FailMode) String() string {
	if m == FailModeRescueShell {
		return "RescueShell"
	}
	return "Reboot"
}

// ParseFailMode parses a fail_mode value from the config document.
func ParseFailMode(value string) (FailMode, error) {
	switch strings.ToLower(value) {
	case "reboot":
		return FailModeReboot, nil
	case "rescueshell":
		return FailModeRescueShell, nil
	default:
		return FailModeReboot, migerr.New(migerr.KindInvalidParameter,
			"invalid value for fail mode '%s'", value)
	}
}

// UnmarshalYAML parses the migrate.fail_mode key.
func (m *FailMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var value string
	if err := unmarshal(&value); err != nil {
		return err
	}
	mode, err := ParseFailMode(value)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
