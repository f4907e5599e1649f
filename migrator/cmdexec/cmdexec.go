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

// Package cmdexec locates the external utilities the migrator shells out to
// and runs them. Command paths are resolved exactly once, when the resolver
// is constructed; every component reaches the shared table through context.T.
package cmdexec

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/balena-os/balena-migrate/migrator/log"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// Names of the external utilities consumed by the migrator.
const (
	DfCmd          = "df"
	LsblkCmd       = "lsblk"
	MountCmd       = "mount"
	FileCmd        = "file"
	UnameCmd       = "uname"
	MokutilCmd     = "mokutil"
	GrubInstallCmd = "grub-install"
)

// requiredCmds must be present for the migrator to start at all.
var requiredCmds = []string{
	DfCmd,
	LsblkCmd,
	MountCmd,
	FileCmd,
	UnameCmd,
}

// optionalCmds are tolerated as absent; requesting one that is absent
// returns a NotFound error instead.
var optionalCmds = []string{
	MokutilCmd,
	GrubInstallCmd,
}

var execLookPath = exec.LookPath
var execCommand = exec.Command

// CmdResult captures the output of one subprocess invocation. A non-zero
// exit code is not an error by itself, callers interpret it per command.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the process exited with status zero.
func (r CmdResult) Success() bool {
	return r.ExitCode == 0
}

// T is the interface to the resolved command table.
type T interface {
	// Path returns the absolute path the command resolved to.
	Path(name string) (string, error)

	// Run invokes the command with the given arguments, capturing stdout
	// (trimmed of surrounding whitespace when trimStdout is set), stderr
	// (never trimmed) and the exit status.
	Run(name string, args []string, trimStdout bool) (CmdResult, error)

	// HasCommand reports whether the command resolved to a path.
	HasCommand(name string) bool
}

// Resolver is the process-wide command table. It is written once during New
// and only read afterwards.
type Resolver struct {
	log   log.T
	paths map[string]string
}

// New resolves all required and optional commands. A required command that
// cannot be located is returned as a NotFound error, the caller owns the
// exit path.
func New(logger log.T) (*Resolver, error) {
	paths := make(map[string]string, len(requiredCmds)+len(optionalCmds))

	for _, name := range requiredCmds {
		path, err := execLookPath(name)
		if err != nil {
			return nil, migerr.Wrap(err, migerr.KindNotFound,
				"cannot find required command '%s'", name)
		}
		logger.Debugf("resolved required command '%s' to '%s'", name, path)
		paths[name] = path
	}

	for _, name := range optionalCmds {
		path, err := execLookPath(name)
		if err != nil {
			logger.Debugf("optional command '%s' is not available", name)
			paths[name] = ""
			continue
		}
		logger.Debugf("resolved optional command '%s' to '%s'", name, path)
		paths[name] = path
	}

	return &Resolver{log: logger, paths: paths}, nil
}

// Path returns the absolute path the command resolved to.
func (r *Resolver) Path(name string) (string, error) {
	path, found := r.paths[name]
	if !found {
		return "", migerr.New(migerr.KindInvalidParameter,
			"command '%s' is not in the list of checked commands", name)
	}
	if path == "" {
		return "", migerr.New(migerr.KindNotFound,
			"command '%s' is not available", name)
	}
	return path, nil
}

// HasCommand reports whether the command resolved to a path.
func (r *Resolver) HasCommand(name string) bool {
	path, found := r.paths[name]
	return found && path != ""
}

// Run invokes a resolved command and captures its output.
func (r *Resolver) Run(name string, args []string, trimStdout bool) (CmdResult, error) {
	path, err := r.Path(name)
	if err != nil {
		return CmdResult{}, err
	}

	r.log.Tracef("running '%s' with args %v", path, args)

	var stdout, stderr bytes.Buffer
	cmd := execCommand(path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return CmdResult{}, migerr.Wrap(err, migerr.KindUpstream,
				"failed to execute command '%s' with args %v", path, args)
		}
	}

	result := CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	if trimStdout {
		result.Stdout = strings.TrimSpace(result.Stdout)
	}
	return result, nil
}
