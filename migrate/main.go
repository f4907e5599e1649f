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

// Package main is the entry point of the balena migration tool. It resolves
// the configuration, validates every migration artifact and either stops
// (pretend/agent mode) or hands off to the flashing engine.
package main

import (
	"fmt"
	"os"

	"github.com/balena-os/balena-migrate/migrator"
	"github.com/balena-os/balena-migrate/migrator/cmdexec"
	"github.com/balena-os/balena-migrate/migrator/config"
	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/log"
	"github.com/balena-os/balena-migrate/migrator/migerr"
	"github.com/balena-os/balena-migrate/migrator/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	parseFlags()

	if versionFlag {
		fmt.Printf("balena-migrate %s\n", version.Version)
		return 0
	}

	logger := log.Logger(logLevelFlag)
	defer logger.Close()
	defer logger.Flush()

	logger.Infof("balena-migrate %s starting", version.Version)

	commands, err := cmdexec.New(logger)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	ctx := context.Default(logger, commands, "[balena-migrate]")

	cli := config.CliParams{
		Mode:    modeFlag,
		Image:   imageFlag,
		Config:  configFlag,
		WorkDir: workDirFlag,
	}

	mig, err := migrator.New(ctx, cli)
	if err != nil {
		return reportError(logger, err)
	}

	if err := mig.Migrate(); err != nil {
		return reportError(logger, err)
	}

	return 0
}

// reportError logs the terminal error once. Errors already shown to the user
// at their point of origin propagate silently.
func reportError(logger log.T, err error) int {
	if !migerr.IsDisplayed(err) {
		logger.Errorf("%v", err)
	}
	return 1
}
