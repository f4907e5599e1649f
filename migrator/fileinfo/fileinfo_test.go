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

package fileinfo

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balena-os/balena-migrate/migrator/cmdexec"
	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

func TestNewResolvesAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.img.gz")
	require.NoError(t, ioutil.WriteFile(path, []byte("0123456789"), 0644))

	ctx := context.NewMockDefault(cmdexec.NewMockCommands())
	info, err := New(ctx, path, dir)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, int64(10), info.Size)
	assert.True(t, filepath.IsAbs(info.Path))
}

func TestNewResolvesRelativeToWorkDir(t *testing.T) {
	workDir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(workDir, "balena.zImage"), []byte("k"), 0644))

	ctx := context.NewMockDefault(cmdexec.NewMockCommands())
	info, err := New(ctx, "balena.zImage", workDir)
	require.NoError(t, err)
	require.NotNil(t, info)

	expected, err := filepath.EvalSymlinks(filepath.Join(workDir, "balena.zImage"))
	require.NoError(t, err)
	assert.Equal(t, expected, info.Path)
}

func TestNewAbsentIsNotAnError(t *testing.T) {
	ctx := context.NewMockDefault(cmdexec.NewMockCommands())

	info, err := New(ctx, "no-such-file", t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, info)

	info, err = New(ctx, filepath.Join(string(os.PathSeparator), "no", "such", "file"), t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestNewResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.json")
	require.NoError(t, ioutil.WriteFile(target, []byte("{}"), 0644))
	link := filepath.Join(dir, "config.link.json")
	require.NoError(t, os.Symlink(target, link))

	ctx := context.NewMockDefault(cmdexec.NewMockCommands())
	info, err := New(ctx, link, dir)
	require.NoError(t, err)
	require.NotNil(t, info)

	expected, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, expected, info.Path)
}

func classify(t *testing.T, fileOutput string, ftype FileType) (bool, error) {
	t.Helper()
	commands := cmdexec.NewMockCommands()
	commands.On("Run", cmdexec.FileCmd, []string{"-bz", "/work/artifact"}, true).
		Return(cmdexec.CmdResult{Stdout: fileOutput, ExitCode: 0}, nil)

	info := &FileInfo{Path: "/work/artifact", Size: 42}
	return info.IsType(context.NewMockDefault(commands), ftype)
}

type isTypeTest struct {
	FileOutput string
	Type       FileType
	Match      bool
}

var isTypeTests = []isTypeTest{
	{"DOS/MBR boot sector; partition 1 ... (gzip compressed data, was \"balena.img\")", OSImage, true},
	{"x86 boot sector (gzip compressed data)", OSImage, true},
	{"DOS/MBR boot sector; partition 1", OSImage, false}, // not gzipped
	{"ASCII cpio archive (SVR4 with no CRC) (gzip compressed data)", InitRD, true},
	{"ASCII cpio archive (SVR4 with no CRC)", InitRD, false},
	{"ASCII text", Json, true},
	{"ASCII text, with very long lines", Text, true},
	{"UTF-8 Unicode text", Text, false},
	{"Linux kernel x86 boot executable bzImage, version 4.19", KernelAMD64, true},
	{"x86 boot sector", KernelAMD64, true},
	{"Linux kernel ARM boot executable zImage (little-endian)", KernelARMHF, true},
	{"Linux kernel ARM boot executable zImage (little-endian)", KernelAMD64, false},
	{"Linux kernel i386 boot executable bzImage, version 4.4", KernelI386, true},
	{"Device Tree Blob version 17", DTB, true},
	{"data", DTB, true}, // known weak check
	{"gzip compressed data", OSImage, false},
}

func TestIsType(t *testing.T) {
	for _, test := range isTypeTests {
		matched, err := classify(t, test.FileOutput, test.Type)
		assert.NoError(t, err, test.FileOutput)
		assert.Equal(t, test.Match, matched, "output %q against %s", test.FileOutput, test.Type.Description())
	}
}

func TestIsTypeEmptyOutputIsHardError(t *testing.T) {
	// a zero-byte file yields an empty description, which must never match
	_, err := classify(t, "", OSImage)
	assert.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindInvalidParameter))
}

func TestIsTypeUtilityFailureIsHardError(t *testing.T) {
	commands := cmdexec.NewMockCommands()
	commands.On("Run", cmdexec.FileCmd, []string{"-bz", "/work/artifact"}, true).
		Return(cmdexec.CmdResult{Stderr: "cannot open", ExitCode: 1}, nil)

	info := &FileInfo{Path: "/work/artifact", Size: 42}
	_, err := info.IsType(context.NewMockDefault(commands), OSImage)
	assert.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindInvalidParameter))
}

func TestExpectTypeMismatch(t *testing.T) {
	commands := cmdexec.NewMockCommands()
	commands.On("Run", cmdexec.FileCmd, []string{"-bz", "/work/balena.zImage"}, true).
		Return(cmdexec.CmdResult{Stdout: "ASCII text", ExitCode: 0}, nil)

	info := &FileInfo{Path: "/work/balena.zImage", Size: 42}
	err := info.ExpectType(context.NewMockDefault(commands), KernelARMHF)
	assert.Error(t, err)
	assert.True(t, migerr.IsKind(err, migerr.KindInvalidParameter))
	assert.Contains(t, err.Error(), KernelARMHF.Description())
	assert.Contains(t, err.Error(), "/work/balena.zImage")
}
