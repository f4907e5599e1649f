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
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(oldDir); err != nil {
			t.Fatal(err)
		}
	})
}

func writeConfig(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigName)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResolveConfigDirBecomesWorkDir(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "migrate:\n  mode: pretend\n")

	config, err := Resolve(ctx, CliParams{Config: cfgPath})
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(cfgPath), config.Migrate.WorkDir)
	assert.Equal(t, ModePretend, config.Migrate.Mode)
}

func TestResolveDocumentWorkDirKept(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	dir := t.TempDir()
	docWorkDir := t.TempDir()
	cfgPath := writeConfig(t, dir,
		fmt.Sprintf("migrate:\n  mode: pretend\n  work_dir: %s\n", docWorkDir))

	config, err := Resolve(ctx, CliParams{Config: cfgPath})
	require.NoError(t, err)

	assert.Equal(t, docWorkDir, config.Migrate.WorkDir)
}

func TestResolveFlagsOnlyNoConfig(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	chdir(t, t.TempDir())
	workDir := t.TempDir()

	config, err := Resolve(ctx, CliParams{WorkDir: workDir, Mode: "pretend"})
	require.NoError(t, err)

	canonical, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	assert.Equal(t, canonical, config.Migrate.WorkDir)
	assert.Equal(t, ModePretend, config.Migrate.Mode)

	// everything else falls back to the compiled-in defaults
	assert.Nil(t, config.Balena.Image.Dd)
	assert.True(t, config.Migrate.IsGzipInternal())
	assert.True(t, config.Balena.IsCheckAPI())
}

func TestResolveWorkDirNotADirectory(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	dir := t.TempDir()
	filePath := filepath.Join(dir, "not-a-dir")
	require.NoError(t, ioutil.WriteFile(filePath, []byte("x"), 0644))
	cfgPath := writeConfig(t, dir,
		fmt.Sprintf("migrate:\n  mode: pretend\n  work_dir: %s\n", filePath))

	_, err := Resolve(ctx, CliParams{Config: cfgPath})
	require.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindInvalidParameter))
	assert.Contains(t, err.Error(), filePath)
}

func TestResolveCliWorkDirWins(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "migrate:\n  mode: pretend\n  work_dir: /var/lib/migrate\n")

	cliWorkDir := t.TempDir()
	config, err := Resolve(ctx, CliParams{Config: cfgPath, WorkDir: cliWorkDir})
	require.NoError(t, err)

	canonical, err := filepath.EvalSymlinks(cliWorkDir)
	require.NoError(t, err)
	assert.Equal(t, canonical, config.Migrate.WorkDir)
}

func TestResolveConfigFoundInsideWorkDir(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	dir := t.TempDir()
	writeConfig(t, dir, "migrate:\n  mode: immediate\n")
	chdir(t, t.TempDir())

	config, err := Resolve(ctx, CliParams{WorkDir: dir})
	require.NoError(t, err)

	assert.Equal(t, ModeImmediate, config.Migrate.Mode)
	canonical, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, canonical, config.Migrate.WorkDir)
}

func TestResolveNoWorkDirNoConfig(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	chdir(t, t.TempDir())

	_, err := Resolve(ctx, CliParams{})
	require.Error(t, err)
	assert.True(t, migerr.IsDisplayed(err))
}

func TestResolveNonexistentCliWorkDir(t *testing.T) {
	ctx := context.NewMockDefault(nil)

	_, err := Resolve(ctx, CliParams{WorkDir: "/nonexistent/migrate/work"})
	require.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindUpstream))
}

func TestResolveCliModeOverridesDocument(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "migrate:\n  mode: agent\n")

	config, err := Resolve(ctx, CliParams{Config: cfgPath, Mode: "pretend"})
	require.NoError(t, err)
	assert.Equal(t, ModePretend, config.Migrate.Mode)
}

func TestResolveInvalidCliMode(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "migrate:\n  mode: agent\n")

	_, err := Resolve(ctx, CliParams{Config: cfgPath, Mode: "extract"})
	require.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindInvalidParameter))
}

func TestResolveMissingModeFails(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "balena:\n  app_name: support1\n")

	_, err := Resolve(ctx, CliParams{Config: cfgPath})
	require.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindInvalidParameter))
}

func TestResolveCliImage(t *testing.T) {
	ctx := context.NewMockDefault(nil)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `
migrate:
  mode: pretend
balena:
  image:
    fs:
      device_slug: beaglebone-black
`)

	config, err := Resolve(ctx, CliParams{Config: cfgPath, Image: "balena-cloud.img.gz"})
	require.NoError(t, err)

	require.NotNil(t, config.Balena.Image.Dd)
	assert.Equal(t, "balena-cloud.img.gz", config.Balena.Image.Dd.Path)
	assert.Nil(t, config.Balena.Image.Fs)
}
