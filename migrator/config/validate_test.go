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
	"crypto/md5"
	"encoding/hex"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balena-os/balena-migrate/migrator/cmdexec"
	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/digest"
	"github.com/balena-os/balena-migrate/migrator/fileinfo"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

const (
	osImageFileOutput = `DOS/MBR boot sector; partition 1 : active (gzip compressed data, was "resin.img")`
	jsonFileOutput    = "ASCII text, with no line terminators"
)

// touchArtifact creates an artifact file and, when fileOutput is non-empty,
// teaches the mocked command table what the file utility reports for it.
func touchArtifact(t *testing.T, commands *cmdexec.Mock, dir, name, content, fileOutput string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	canonical, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	if fileOutput != "" {
		commands.On("Run", cmdexec.FileCmd, []string{"-bz", canonical}, true).
			Return(cmdexec.CmdResult{Stdout: fileOutput}, nil)
	}
	return canonical
}

func md5Hex(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestValidateArtifactsImmediateDd(t *testing.T) {
	commands := cmdexec.NewMockCommands()
	ctx := context.NewMockDefault(commands)
	dir := t.TempDir()

	imagePath := touchArtifact(t, commands, dir, "disk.img.gz", "image-bytes", osImageFileOutput)
	cfgJsonPath := touchArtifact(t, commands, dir, "config.json", `{"applicationId":1}`, jsonFileOutput)

	config := defaultConfig()
	config.Migrate.Mode = ModeImmediate
	config.Migrate.WorkDir = dir
	config.Balena.Image.Dd = &FileRef{
		Path: "disk.img.gz",
		Hash: &digest.HashInfo{Md5: md5Hex("image-bytes")},
	}
	config.Balena.Config = FileRef{Path: "config.json"}

	resolved, err := config.ValidateArtifacts(ctx, fileinfo.KernelAMD64)
	require.NoError(t, err)

	require.NotNil(t, resolved.Image)
	assert.Equal(t, imagePath, resolved.Image.Path)
	assert.Equal(t, int64(len("image-bytes")), resolved.Image.Size)
	require.NotNil(t, resolved.ConfigJson)
	assert.Equal(t, cfgJsonPath, resolved.ConfigJson.Path)
	assert.Nil(t, resolved.Kernel)
	assert.Nil(t, resolved.Initrd)
	assert.Nil(t, resolved.Dtb)
}

func TestValidateArtifactsDigestMismatch(t *testing.T) {
	commands := cmdexec.NewMockCommands()
	ctx := context.NewMockDefault(commands)
	dir := t.TempDir()

	touchArtifact(t, commands, dir, "disk.img.gz", "image-bytes", osImageFileOutput)

	config := defaultConfig()
	config.Migrate.Mode = ModeImmediate
	config.Migrate.WorkDir = dir
	config.Balena.Image.Dd = &FileRef{
		Path: "disk.img.gz",
		// md5 of the empty string, guaranteed not to match
		Hash: &digest.HashInfo{Md5: "d41d8cd98f00b204e9800998ecf8427e"},
	}

	_, err := config.ValidateArtifacts(ctx, fileinfo.KernelAMD64)
	require.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindInvalidParameter))
	assert.Contains(t, err.Error(), "md5")
}

func TestValidateArtifactsWrongImageType(t *testing.T) {
	commands := cmdexec.NewMockCommands()
	ctx := context.NewMockDefault(commands)
	dir := t.TempDir()

	touchArtifact(t, commands, dir, "disk.img.gz", "not an image", jsonFileOutput)

	config := defaultConfig()
	config.Migrate.Mode = ModeImmediate
	config.Migrate.WorkDir = dir
	config.Balena.Image.Dd = &FileRef{Path: "disk.img.gz"}

	_, err := config.ValidateArtifacts(ctx, fileinfo.KernelAMD64)
	require.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindInvalidParameter))
	assert.Contains(t, err.Error(), "balena OS image")
}

func TestValidateArtifactsMissingRequired(t *testing.T) {
	commands := cmdexec.NewMockCommands()
	ctx := context.NewMockDefault(commands)
	dir := t.TempDir()

	config := defaultConfig()
	config.Migrate.Mode = ModeImmediate
	config.Migrate.WorkDir = dir
	config.Migrate.Kernel = FileRef{Path: "balena.zImage"}

	_, err := config.ValidateArtifacts(ctx, fileinfo.KernelARMHF)
	require.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindNotFound))
	assert.Contains(t, err.Error(), "balena.zImage")
}

func TestValidateArtifactsAgentModeToleratesAbsence(t *testing.T) {
	commands := cmdexec.NewMockCommands()
	ctx := context.NewMockDefault(commands)
	dir := t.TempDir()

	config := defaultConfig()
	config.Migrate.Mode = ModeAgent
	config.Migrate.WorkDir = dir
	config.Migrate.Kernel = FileRef{Path: "balena.zImage"}
	config.Balena.Image.Dd = &FileRef{Path: "disk.img.gz"}

	resolved, err := config.ValidateArtifacts(ctx, fileinfo.KernelARMHF)
	require.NoError(t, err)
	assert.Nil(t, resolved.Kernel)
	assert.Nil(t, resolved.Image)
}

func TestValidateArtifactsUnresolvedMode(t *testing.T) {
	ctx := context.NewMockDefault(cmdexec.NewMockCommands())

	config := defaultConfig()
	config.Migrate.WorkDir = t.TempDir()

	_, err := config.ValidateArtifacts(ctx, fileinfo.KernelAMD64)
	require.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindInvalidState))
}

func TestValidateArtifactsFsPartitions(t *testing.T) {
	commands := cmdexec.NewMockCommands()
	ctx := context.NewMockDefault(commands)
	dir := t.TempDir()

	touchArtifact(t, commands, dir, "resin-boot.tgz", "boot-bytes", "")

	config := defaultConfig()
	config.Migrate.Mode = ModeImmediate
	config.Migrate.WorkDir = dir
	config.Balena.Image.Fs = &FsConfig{
		DeviceSlug: "beaglebone-black",
		Boot: PartitionSpec{
			Blocks: 81920,
			Archive: FileRef{
				Path: "resin-boot.tgz",
				Hash: &digest.HashInfo{Md5: md5Hex("boot-bytes")},
			},
		},
		State: PartitionSpec{
			Blocks:  40960,
			Archive: FileRef{Path: "resin-state.tgz"},
		},
	}

	_, err := config.ValidateArtifacts(ctx, fileinfo.KernelAMD64)
	require.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindNotFound))
	assert.Contains(t, err.Error(), "state")
}
