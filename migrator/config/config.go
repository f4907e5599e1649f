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

// Package config resolves the migrate configuration from command line
// overrides, the on-disk configuration document and compiled-in defaults
// into one validated tree. Command line values always win, the document
// comes second, defaults last.
package config

import (
	"gopkg.in/yaml.v2"

	"github.com/balena-os/balena-migrate/migrator/digest"
	"github.com/balena-os/balena-migrate/migrator/fileutil"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

const (
	// DefaultConfigName is the config document looked for next to the
	// current directory and inside the work directory.
	DefaultConfigName = "balena-migrate.yml"

	// DefaultAPIPort is the balena provisioning API port used when the
	// apiEndpoint URL carries no explicit port.
	DefaultAPIPort = 443

	// DefaultCheckTimeout bounds connectivity probes, in seconds.
	DefaultCheckTimeout = 20
)

// FileRef points at a migration artifact, as an absolute path or relative to
// the work directory, with an optional expected digest.
type FileRef struct {
	Path string           `yaml:"path"`
	Hash *digest.HashInfo `yaml:"hash,omitempty"`
}

// LogConfig configures stage2 persistent logging.
type LogConfig struct {
	Console bool   `yaml:"console,omitempty"`
	Drive   string `yaml:"drive,omitempty"`
	Level   string `yaml:"level,omitempty"`
}

// BackupItem is one file or directory copied into a backup volume.
type BackupItem struct {
	Source string `yaml:"source"`
	Target string `yaml:"target,omitempty"`
	Filter string `yaml:"filter,omitempty"`
}

// VolumeBackup maps backed-up files to a balena volume.
type VolumeBackup struct {
	Volume string       `yaml:"volume"`
	Items  []BackupItem `yaml:"items"`
}

// WatchdogConfig configures kicking a hardware watchdog during stage2.
type WatchdogConfig struct {
	Path     string  `yaml:"path"`
	Interval *uint64 `yaml:"interval,omitempty"`
	Close    *bool   `yaml:"close,omitempty"`
}

// MigrateConfig is the migrate sub-tree of the configuration.
type MigrateConfig struct {
	WorkDir            string           `yaml:"work_dir,omitempty"`
	Mode               MigMode          `yaml:"mode,omitempty"`
	Reboot             *uint64          `yaml:"reboot,omitempty"`
	AllWifis           bool             `yaml:"all_wifis,omitempty"`
	Wifis              []string         `yaml:"wifis,omitempty"`
	Log                LogConfig        `yaml:"log,omitempty"`
	Kernel             FileRef          `yaml:"kernel,omitempty"`
	Initrd             FileRef          `yaml:"initrd,omitempty"`
	DtbPath            string           `yaml:"dtb_path,omitempty"`
	Backup             []VolumeBackup   `yaml:"backup,omitempty"`
	FailMode           FailMode         `yaml:"fail_mode,omitempty"`
	NwmgrFiles         []string         `yaml:"nwmgr_files,omitempty"`
	GzipInternal       *bool            `yaml:"gzip_internal,omitempty"`
	KernelOpts         string           `yaml:"kernel_opts,omitempty"`
	Delay              uint64           `yaml:"delay,omitempty"`
	Watchdogs          []WatchdogConfig `yaml:"watchdogs,omitempty"`
	RequireNwmgrConfig *bool            `yaml:"require_nwmgr_config,omitempty"`
	ForceSlug          string           `yaml:"force_slug,omitempty"`
}

// HasWorkDir reports whether a work directory was configured.
func (m *MigrateConfig) HasWorkDir() bool {
	return m.WorkDir != ""
}

// IsGzipInternal reports whether dd input is gunzipped internally rather
// than piped through gzip. Defaults to true.
func (m *MigrateConfig) IsGzipInternal() bool {
	if m.GzipInternal == nil {
		return true
	}
	return *m.GzipInternal
}

// RequiresNwmgrConfigs reports whether at least one network manager
// connection file must be configured. Defaults to true.
func (m *MigrateConfig) RequiresNwmgrConfigs() bool {
	if m.RequireNwmgrConfig == nil {
		return true
	}
	return *m.RequireNwmgrConfig
}

// check validates the migrate sub-tree after merging.
func (m *MigrateConfig) check() error {
	if m.Mode == ModeInvalid {
		return migerr.New(migerr.KindInvalidParameter,
			"no migrate mode selected, please specify one of agent, immediate or pretend")
	}
	if m.Reboot != nil && *m.Reboot == 0 {
		m.Reboot = nil
	}
	return nil
}

// ImageSource selects between a raw disk image written with dd and a set of
// per-partition filesystem archives. Exactly one variant may be configured.
type ImageSource struct {
	Dd *FileRef  `yaml:"dd,omitempty"`
	Fs *FsConfig `yaml:"fs,omitempty"`
}

// PartitionSpec sizes one partition and names the archive restored into it.
type PartitionSpec struct {
	Blocks  uint64  `yaml:"blocks"`
	Archive FileRef `yaml:"archive"`
}

// FsConfig describes a per-partition filesystem image set.
type FsConfig struct {
	DeviceSlug     string        `yaml:"device_slug"`
	Check          string        `yaml:"check,omitempty"`
	MaxData        *bool         `yaml:"max_data,omitempty"`
	MkfsDirect     *bool         `yaml:"mkfs_direct,omitempty"`
	ExtendedBlocks uint64        `yaml:"extended_blocks,omitempty"`
	Boot           PartitionSpec `yaml:"boot"`
	RootA          PartitionSpec `yaml:"root_a"`
	RootB          PartitionSpec `yaml:"root_b"`
	State          PartitionSpec `yaml:"state"`
	Data           PartitionSpec `yaml:"data"`
}

// APIConfig configures the balena API reachability check.
type APIConfig struct {
	Host  string `yaml:"host,omitempty"`
	Port  uint16 `yaml:"port,omitempty"`
	Check *bool  `yaml:"check,omitempty"`
}

// BalenaConfig is the balena sub-tree of the configuration.
type BalenaConfig struct {
	Image        ImageSource `yaml:"image,omitempty"`
	Config       FileRef     `yaml:"config,omitempty"`
	AppName      string      `yaml:"app_name,omitempty"`
	API          APIConfig   `yaml:"api,omitempty"`
	CheckVpn     *bool       `yaml:"check_vpn,omitempty"`
	CheckTimeout uint64      `yaml:"check_timeout,omitempty"`
}

// IsCheckAPI reports whether API reachability is verified. Defaults to true.
func (b *BalenaConfig) IsCheckAPI() bool {
	if b.API.Check == nil {
		return true
	}
	return *b.API.Check
}

// IsCheckVpn reports whether VPN reachability is verified. Defaults to true.
func (b *BalenaConfig) IsCheckVpn() bool {
	if b.CheckVpn == nil {
		return true
	}
	return *b.CheckVpn
}

// GetCheckTimeout returns the probe timeout in seconds.
func (b *BalenaConfig) GetCheckTimeout() uint64 {
	if b.CheckTimeout == 0 {
		return DefaultCheckTimeout
	}
	return b.CheckTimeout
}

// SetImagePath replaces the configured OS image with a raw disk image given
// on the command line.
func (b *BalenaConfig) SetImagePath(image string) {
	b.Image = ImageSource{Dd: &FileRef{Path: image}}
}

// check validates the balena sub-tree. Image requirements depend on the
// migrate mode, in agent mode the image arrives from the remote controller.
func (b *BalenaConfig) check(mode MigMode) error {
	if mode == ModeAgent {
		return nil
	}
	if b.Image.Dd != nil && b.Image.Fs != nil {
		return migerr.New(migerr.KindInvalidParameter,
			"both dd and fs image variants are configured, expected exactly one")
	}
	return nil
}

// DebugConfig is the debug sub-tree, used only for dry-run testing.
type DebugConfig struct {
	NoFlash          bool   `yaml:"no_flash,omitempty"`
	ForceFlashDevice string `yaml:"force_flash_device,omitempty"`
}

func (d *DebugConfig) check(mode MigMode) error {
	return nil
}

// Config is the root of the resolved migrate configuration.
type Config struct {
	Migrate MigrateConfig `yaml:"migrate"`
	Balena  BalenaConfig  `yaml:"balena"`
	Debug   DebugConfig   `yaml:"debug"`
}

// defaultConfig returns the compiled-in defaults. The work directory is
// deliberately left empty, resolution fails loudly when no source sets one.
func defaultConfig() *Config {
	return &Config{}
}

// fromString parses a configuration document. Unknown keys are tolerated to
// keep forward-compatible documents working.
func fromString(content string) (*Config, error) {
	config := defaultConfig()
	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return nil, migerr.Wrap(err, migerr.KindUpstream,
			"failed to deserialize config from yaml")
	}
	return config, nil
}

// fromFile reads and parses a configuration document.
func fromFile(path string) (*Config, error) {
	content, err := fileutil.ReadAllText(path)
	if err != nil {
		return nil, migerr.Wrap(err, migerr.KindUpstream,
			"failed to read config file '%s'", path)
	}
	return fromString(content)
}

// check validates the merged tree top-down. Some balena fields are
// mode-conditional, so the resolved mode is passed down.
func (c *Config) check() error {
	if err := c.Migrate.check(); err != nil {
		return err
	}
	mode := c.Migrate.Mode
	if err := c.Balena.check(mode); err != nil {
		return err
	}
	if err := c.Debug.check(mode); err != nil {
		return err
	}
	return nil
}
