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

// Package migrator runs the stage1 preflight pass: resolve one consistent
// configuration, confirm every artifact the migration needs, confirm the
// backend is reachable, and only then hand the validated result to the
// flashing engine. Everything destructive happens after this package said go.
package migrator

import (
	"time"

	"github.com/balena-os/balena-migrate/migrator/balenacfg"
	"github.com/balena-os/balena-migrate/migrator/config"
	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/fileutil"
	"github.com/balena-os/balena-migrate/migrator/osrelease"
)

// Migrator is the validated stage1 state. A fully validated Migrator is the
// go/no-go object handed to the flashing engine.
type Migrator struct {
	ctx       context.T
	config    *config.Config
	artifacts *config.ResolvedArtifacts
	balenaCfg *balenacfg.BalenaCfgJson
}

// New resolves the configuration from the command line values and the
// on-disk document. No artifact or network validation happens yet.
func New(ctx context.T, cli config.CliParams) (*Migrator, error) {
	cfg, err := config.Resolve(ctx, cli)
	if err != nil {
		return nil, err
	}
	return &Migrator{ctx: ctx, config: cfg}, nil
}

// Config returns the resolved configuration.
func (m *Migrator) Config() *config.Config {
	return m.config
}

// Artifacts returns the artifacts resolved during Validate.
func (m *Migrator) Artifacts() *config.ResolvedArtifacts {
	return m.artifacts
}

// BalenaCfg returns the provisioning document loaded during Validate, nil
// when none was configured.
func (m *Migrator) BalenaCfg() *balenacfg.BalenaCfgJson {
	return m.balenaCfg
}

// Validate runs the preflight checks in order: device architecture, artifact
// presence/classification/digests, provisioning document, backend
// reachability. Any error is terminal, the migration must not proceed.
func (m *Migrator) Validate() error {
	logger := m.ctx.Log()

	if fileutil.Exists(osrelease.DefaultOSReleasePath) {
		if release, err := osrelease.FromFile(osrelease.DefaultOSReleasePath); err == nil {
			logger.Infof("migrating '%s'", release.PrettyName)
		}
	}

	arch, err := osrelease.GetOSArch(m.ctx)
	if err != nil {
		return err
	}
	kernelType := arch.KernelFileType()
	logger.Debugf("device architecture: %s", arch)

	artifacts, err := m.config.ValidateArtifacts(m.ctx, kernelType)
	if err != nil {
		return err
	}
	m.artifacts = artifacts

	if artifacts.ConfigJson != nil {
		cfgJson, err := balenacfg.New(m.ctx, artifacts.ConfigJson)
		if err != nil {
			return err
		}
		m.balenaCfg = cfgJson

		if err := cfgJson.Check(m.config); err != nil {
			return err
		}
	}

	return nil
}

// Migrate runs Validate and then acts according to the resolved mode. The
// flashing engine itself is an external collaborator, immediate mode ends
// here with a validated handoff.
func (m *Migrator) Migrate() error {
	logger := m.ctx.Log()

	if err := m.Validate(); err != nil {
		return err
	}

	if delay := m.config.Migrate.Delay; delay > 0 {
		logger.Infof("delaying migration by %d seconds", delay)
		time.Sleep(time.Duration(delay) * time.Second)
	}

	switch m.config.Migrate.Mode {
	case config.ModePretend:
		logger.Info("pretend mode, all checks passed, stopping short of destructive action")
		return nil
	case config.ModeAgent:
		logger.Info("agent mode, deferring migration to the remote controller")
		return nil
	default:
		if m.config.Debug.NoFlash {
			logger.Info("debug no_flash is set, skipping the flash step")
			return nil
		}
		logger.Info("configuration validated, handing off to the flashing engine")
		return nil
	}
}
