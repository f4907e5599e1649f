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
	"path/filepath"

	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/fileutil"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// CliParams carries the values resolved from the command line. Parsing
// itself happens in main, an empty string means the flag was not given.
type CliParams struct {
	Mode    string
	Image   string
	Config  string
	WorkDir string
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	// EvalSymlinks also fails for paths that do not exist
	return filepath.EvalSymlinks(abs)
}

// Resolve merges command line overrides, the on-disk configuration document
// and compiled-in defaults into one validated configuration.
//
// The work directory can be given on the command line, it can also come from
// the config document, the command line winning. The config document is
// looked for at the command line path, then relative to the current
// directory, then inside the work directory. When the document set no work
// directory and neither did the command line, the document's own containing
// directory becomes the work directory, so a config file doubles as an
// anchor for relative paths.
func Resolve(ctx context.T, cli CliParams) (*Config, error) {
	logger := ctx.Log()

	workDir := ""
	if cli.WorkDir != "" {
		canonical, err := canonicalize(cli.WorkDir)
		if err != nil {
			return nil, migerr.Wrap(err, migerr.KindUpstream,
				"failed to create absolute path from work_dir: '%s'", cli.WorkDir)
		}
		workDir = canonical
	}

	// provisional work dir, used only to locate the config document
	tmpWorkDir := workDir
	if tmpWorkDir == "" {
		tmpWorkDir = "."
	}

	configName := cli.Config
	if configName == "" {
		configName = DefaultConfigName
	}

	configPath := ""
	if filepath.IsAbs(configName) {
		configPath = configName
	} else if canonical, err := canonicalize(configName); err == nil {
		configPath = canonical
	} else if canonical, err := canonicalize(filepath.Join(tmpWorkDir, configName)); err == nil {
		configPath = canonical
	}

	var config *Config
	if configPath != "" && fileutil.Exists(configPath) {
		logger.Infof("Using config file '%s'", configPath)
		parsed, err := fromFile(configPath)
		if err != nil {
			return nil, err
		}
		config = parsed
		// use the config file location as work dir if nothing else was defined
		if !config.Migrate.HasWorkDir() && workDir == "" {
			config.Migrate.WorkDir = filepath.Dir(configPath)
		}
	} else {
		config = defaultConfig()
	}

	// a work dir from the command line overrides the document
	if workDir != "" {
		config.Migrate.WorkDir = workDir
	}

	if !config.Migrate.HasWorkDir() {
		logger.Error("no working directory specified and no configuration found")
		return nil, migerr.Displayed()
	}

	if isDir, err := fileutil.DirExists(config.Migrate.WorkDir); err != nil {
		return nil, migerr.Wrap(err, migerr.KindUpstream,
			"failed to access work_dir '%s'", config.Migrate.WorkDir)
	} else if !isDir {
		return nil, migerr.New(migerr.KindInvalidParameter,
			"work_dir '%s' is not a directory", config.Migrate.WorkDir)
	}

	logger.Debugf("using work_dir '%s'", config.Migrate.WorkDir)

	if cli.Mode != "" {
		mode, err := ParseMigMode(cli.Mode)
		if err != nil {
			return nil, err
		}
		config.Migrate.Mode = mode
	}

	logger.Debugf("migrate mode: %s", config.Migrate.Mode)

	if cli.Image != "" {
		config.Balena.SetImagePath(cli.Image)
	}

	if err := config.check(); err != nil {
		return nil, err
	}

	return config, nil
}
