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

// Package osrelease identifies the OS and architecture of the device being
// migrated. The architecture selects which stage2 kernel flavor the
// configured kernel artifact must classify as.
package osrelease

import (
	"strings"

	"gopkg.in/ini.v1"

	"github.com/balena-os/balena-migrate/migrator/cmdexec"
	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/fileinfo"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// DefaultOSReleasePath is where os-release lives on anything systemd-ish.
const DefaultOSReleasePath = "/etc/os-release"

// OSRelease holds the identity fields of /etc/os-release.
type OSRelease struct {
	Name       string
	ID         string
	VersionID  string
	PrettyName string
}

// FromFile parses an os-release file. The format is a flat key=value
// document with optional quoting.
func FromFile(path string) (*OSRelease, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, migerr.Wrap(err, migerr.KindUpstream,
			"failed to read os-release file '%s'", path)
	}

	section := file.Section("")
	unquote := func(value string) string {
		return strings.Trim(value, `"`)
	}

	return &OSRelease{
		Name:       unquote(section.Key("NAME").String()),
		ID:         unquote(section.Key("ID").String()),
		VersionID:  unquote(section.Key("VERSION_ID").String()),
		PrettyName: unquote(section.Key("PRETTY_NAME").String()),
	}, nil
}

// OSArch is the device architecture as far as the migrator cares.
type OSArch int

const (
	// ArchAMD64 covers x86_64 devices.
	ArchAMD64 OSArch = iota
	// ArchARMHF covers 32 bit ARM devices.
	ArchARMHF
	// ArchI386 covers legacy 32 bit x86 devices.
	ArchI386
)

func (a OSArch) String() string {
	switch a {
	case ArchAMD64:
		return "AMD64"
	case ArchARMHF:
		return "ARMHF"
	case ArchI386:
		return "I386"
	default:
		return "unknown"
	}
}

// KernelFileType returns the kernel artifact role expected for the
// architecture.
func (a OSArch) KernelFileType() fileinfo.FileType {
	switch a {
	case ArchARMHF:
		return fileinfo.KernelARMHF
	case ArchI386:
		return fileinfo.KernelI386
	default:
		return fileinfo.KernelAMD64
	}
}

// GetOSArch determines the machine architecture via 'uname -m'.
func GetOSArch(ctx context.T) (OSArch, error) {
	cmdRes, err := ctx.Commands().Run(cmdexec.UnameCmd, []string{"-m"}, true)
	if err != nil {
		return ArchAMD64, err
	}
	if !cmdRes.Success() || cmdRes.Stdout == "" {
		return ArchAMD64, migerr.New(migerr.KindExecutionFailure,
			"uname -m failed with exit code %d", cmdRes.ExitCode)
	}

	machine := cmdRes.Stdout
	switch {
	case machine == "x86_64" || machine == "amd64":
		return ArchAMD64, nil
	case strings.HasPrefix(machine, "armv") || machine == "armhf":
		return ArchARMHF, nil
	case machine == "i386" || machine == "i686" || machine == "x86":
		return ArchI386, nil
	default:
		return ArchAMD64, migerr.New(migerr.KindInvalidParameter,
			"unsupported machine architecture '%s'", machine)
	}
}
