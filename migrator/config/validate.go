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
	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/digest"
	"github.com/balena-os/balena-migrate/migrator/fileinfo"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// ResolvedArtifacts holds the artifacts confirmed present during validation.
// Entries are nil when the artifact is optional (or not required in the
// resolved mode) and was not configured.
type ResolvedArtifacts struct {
	Kernel     *fileinfo.FileInfo
	Initrd     *fileinfo.FileInfo
	Dtb        *fileinfo.FileInfo
	Image      *fileinfo.FileInfo
	ConfigJson *fileinfo.FileInfo
}

// checkFileRef resolves one configured file reference, classifies it and
// verifies its digest. When required is set, a configured artifact that is
// absent on disk is a terminal error; otherwise absence is reported as nil.
// An unconfigured reference is always skipped.
func (c *Config) checkFileRef(ctx context.T, ref *FileRef, ftype fileinfo.FileType, required bool, role string) (*fileinfo.FileInfo, error) {
	if ref == nil || ref.Path == "" {
		return nil, nil
	}

	info, err := fileinfo.New(ctx, ref.Path, c.Migrate.WorkDir)
	if err != nil {
		return nil, err
	}
	if info == nil {
		if required {
			return nil, migerr.New(migerr.KindNotFound,
				"cannot find %s '%s'", role, ref.Path)
		}
		ctx.Log().Debugf("optional %s '%s' not present", role, ref.Path)
		return nil, nil
	}

	if err := info.ExpectType(ctx, ftype); err != nil {
		return nil, err
	}
	if err := digest.Check(ctx, info, ref.Hash); err != nil {
		return nil, err
	}

	ctx.Log().Infof("using %s '%s', %d bytes", role, info.Path, info.Size)
	return info, nil
}

// ValidateArtifacts confirms that every artifact the configuration references
// exists, classifies as its expected role and matches its configured digest.
// Under Immediate and Pretend a configured artifact that cannot be resolved
// is terminal. In agent mode the OS image and kernel/initramfs arrive from
// the remote controller, so local absence is tolerated. kernelType names the
// kernel flavor expected for the device architecture.
func (c *Config) ValidateArtifacts(ctx context.T, kernelType fileinfo.FileType) (*ResolvedArtifacts, error) {
	mode := c.Migrate.Mode
	if mode == ModeInvalid {
		return nil, migerr.New(migerr.KindInvalidState,
			"cannot validate artifacts for an unresolved migrate mode")
	}

	required := mode == ModeImmediate || mode == ModePretend
	resolved := &ResolvedArtifacts{}
	var err error

	if resolved.Kernel, err = c.checkFileRef(ctx, &c.Migrate.Kernel, kernelType, required, "kernel"); err != nil {
		return nil, err
	}
	if resolved.Initrd, err = c.checkFileRef(ctx, &c.Migrate.Initrd, fileinfo.InitRD, required, "initramfs"); err != nil {
		return nil, err
	}
	if c.Migrate.DtbPath != "" {
		dtbRef := &FileRef{Path: c.Migrate.DtbPath}
		if resolved.Dtb, err = c.checkFileRef(ctx, dtbRef, fileinfo.DTB, required, "device tree blob"); err != nil {
			return nil, err
		}
	}

	if resolved.Image, err = c.validateImage(ctx, required); err != nil {
		return nil, err
	}

	if resolved.ConfigJson, err = c.checkFileRef(ctx, &c.Balena.Config, fileinfo.Json, required, "balena config.json"); err != nil {
		return nil, err
	}

	return resolved, nil
}

// validateImage checks the configured OS image variant. A dd image must
// classify as a gzipped boot-sector image, the filesystem variant requires
// each configured partition archive to be present with a matching digest.
func (c *Config) validateImage(ctx context.T, required bool) (*fileinfo.FileInfo, error) {
	image := c.Balena.Image

	if image.Dd != nil {
		return c.checkFileRef(ctx, image.Dd, fileinfo.OSImage, required, "balena OS image")
	}

	if image.Fs != nil {
		partitions := []struct {
			name string
			spec *PartitionSpec
		}{
			{"boot", &image.Fs.Boot},
			{"rootA", &image.Fs.RootA},
			{"rootB", &image.Fs.RootB},
			{"state", &image.Fs.State},
			{"data", &image.Fs.Data},
		}
		for _, partition := range partitions {
			if partition.spec.Archive.Path == "" {
				continue
			}
			info, err := fileinfo.New(ctx, partition.spec.Archive.Path, c.Migrate.WorkDir)
			if err != nil {
				return nil, err
			}
			if info == nil {
				if required {
					return nil, migerr.New(migerr.KindNotFound,
						"cannot find %s partition archive '%s'",
						partition.name, partition.spec.Archive.Path)
				}
				continue
			}
			if err := digest.Check(ctx, info, partition.spec.Archive.Hash); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	return nil, nil
}
