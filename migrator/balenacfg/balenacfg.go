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

// Package balenacfg loads the device provisioning document (config.json),
// exposes typed accessors over its untyped key/value content and validates
// that the provisioned device will be able to reach its backend. Keys the
// migrator does not touch are preserved verbatim across a read-modify-write
// cycle, and a rewrite always goes to a fresh file, never over the original.
package balenacfg

import (
	"fmt"
	"io/ioutil"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/twinj/uuid"

	"github.com/balena-os/balena-migrate/migrator/config"
	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/fileinfo"
	"github.com/balena-os/balena-migrate/migrator/migerr"
	"github.com/balena-os/balena-migrate/migrator/netcheck"
)

// GenerateUUID returns the unique part of rewritten config.json file names.
var GenerateUUID = func() (id uuid.UUID) {
	uuid.SwitchFormat(uuid.CleanHyphen)
	return uuid.NewV4()
}

// BalenaCfgJson is the parsed provisioning document.
type BalenaCfgJson struct {
	ctx      context.T
	doc      *gabs.Container
	path     string
	size     int64
	modified bool
}

// New parses the provisioning document located by info. A document that does
// not parse as a JSON object is a hard error naming the source path.
func New(ctx context.T, info *fileinfo.FileInfo) (*BalenaCfgJson, error) {
	content, err := ioutil.ReadFile(info.Path)
	if err != nil {
		return nil, migerr.Wrap(err, migerr.KindUpstream,
			"cannot open file '%s'", info.Path)
	}

	doc, err := gabs.ParseJSON(content)
	if err != nil {
		return nil, migerr.Wrap(err, migerr.KindUpstream,
			"failed to parse json from file '%s'", info.Path)
	}
	if _, err := doc.ChildrenMap(); err != nil {
		return nil, migerr.New(migerr.KindInvalidParameter,
			"expected a json object in file '%s'", info.Path)
	}

	return &BalenaCfgJson{
		ctx:  ctx,
		doc:  doc,
		path: info.Path,
		size: info.Size,
	}, nil
}

// IsModified reports whether the document carries unwritten changes.
func (b *BalenaCfgJson) IsModified() bool {
	return b.modified
}

// Size returns the size of the source file in bytes.
func (b *BalenaCfgJson) Size() int64 {
	return b.size
}

// Path returns the path the document was loaded from.
func (b *BalenaCfgJson) Path() string {
	return b.path
}

func (b *BalenaCfgJson) getStrVal(name string) (string, error) {
	value := b.doc.Search(name)
	if value == nil {
		return "", migerr.New(migerr.KindNotFound,
			"key could not be found in config.json: '%s'", name)
	}
	str, ok := value.Data().(string)
	if !ok {
		return "", migerr.New(migerr.KindInvalidParameter,
			"invalid type encountered for '%s' in config.json, expected string, found %v",
			name, value.Data())
	}
	return str, nil
}

func (b *BalenaCfgJson) getUintVal(name string) (uint64, error) {
	value := b.doc.Search(name)
	if value == nil {
		return 0, migerr.New(migerr.KindNotFound,
			"key could not be found in config.json: '%s'", name)
	}
	num, ok := value.Data().(float64)
	if !ok || num < 0 || num != math.Trunc(num) {
		return 0, migerr.New(migerr.KindInvalidParameter,
			"invalid type encountered for '%s' in config.json, expected uint, found %v",
			name, value.Data())
	}
	return uint64(num), nil
}

// GetHostname returns the configured device hostname.
func (b *BalenaCfgJson) GetHostname() (string, error) {
	return b.getStrVal("hostname")
}

// SetHostname replaces the hostname key, marking the document modified. The
// previous value is returned if one existed.
func (b *BalenaCfgJson) SetHostname(hostname string) (previous string, existed bool) {
	if value := b.doc.Search("hostname"); value != nil {
		existed = true
		if str, ok := value.Data().(string); ok {
			previous = str
		} else {
			previous = fmt.Sprintf("%v", value.Data())
		}
	}
	b.doc.Set(hostname, "hostname")
	b.modified = true
	return previous, existed
}

// GetAppID returns the application the device belongs to.
func (b *BalenaCfgJson) GetAppID() (uint64, error) {
	return b.getUintVal("applicationId")
}

// GetApiKey returns the device api key.
func (b *BalenaCfgJson) GetApiKey() (string, error) {
	return b.getStrVal("apiKey")
}

// GetApiEndpoint returns the balena API endpoint URL.
func (b *BalenaCfgJson) GetApiEndpoint() (string, error) {
	return b.getStrVal("apiEndpoint")
}

func (b *BalenaCfgJson) getVpnEndpoint() (string, error) {
	return b.getStrVal("vpnEndpoint")
}

func (b *BalenaCfgJson) getVpnPort() (uint16, error) {
	port, err := b.getUintVal("vpnPort")
	if err != nil {
		return 0, err
	}
	if port == 0 || port > math.MaxUint16 {
		return 0, migerr.New(migerr.KindInvalidParameter,
			"vpnPort %d in config.json is out of range", port)
	}
	return uint16(port), nil
}

// GetDeviceType returns the device type slug the document was issued for.
func (b *BalenaCfgJson) GetDeviceType() (string, error) {
	return b.getStrVal("deviceType")
}

// Write serializes the full document, untouched keys included, to a freshly
// named file inside workDir. The source file is never overwritten. The
// modified flag is cleared only after the write succeeded.
func (b *BalenaCfgJson) Write(workDir string) (string, error) {
	newPath := filepath.Join(workDir, fmt.Sprintf("config-%s.json", GenerateUUID()))

	outFile, err := os.OpenFile(newPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", migerr.Wrap(err, migerr.KindUpstream,
			"failed to create temporary file '%s'", newPath)
	}
	defer outFile.Close()

	if _, err := outFile.WriteString(b.doc.String()); err != nil {
		return "", migerr.Wrap(err, migerr.KindUpstream,
			"failed to save modified config.json to '%s'", newPath)
	}

	b.modified = false
	return newPath, nil
}

// Check validates that the device will come online after migration. When
// enabled, the balena API endpoint and the VPN endpoint from the document
// are probed once each; either probe failing is terminal, the migration must
// not proceed if the device could come up unreachable.
func (b *BalenaCfgJson) Check(cfg *config.Config) error {
	logger := b.ctx.Log()

	appID, err := b.GetAppID()
	if err != nil {
		return err
	}
	logger.Infof("Configured for application id: %d", appID)

	timeout := time.Duration(cfg.Balena.GetCheckTimeout()) * time.Second

	if cfg.Balena.IsCheckAPI() {
		apiEndpoint, err := b.GetApiEndpoint()
		if err != nil {
			return err
		}

		apiURL, err := url.Parse(apiEndpoint)
		if err != nil {
			return migerr.Wrap(err, migerr.KindUpstream,
				"failed to parse balena api url '%s'", apiEndpoint)
		}

		apiHost := apiURL.Hostname()
		if apiHost == "" {
			logger.Errorf("failed to parse api server url from config.json: %s", apiEndpoint)
			return migerr.Displayed()
		}

		apiPort := uint16(config.DefaultAPIPort)
		if portStr := apiURL.Port(); portStr != "" {
			port, err := strconv.ParseUint(portStr, 10, 16)
			if err != nil {
				return migerr.Wrap(err, migerr.KindInvalidParameter,
					"invalid port in balena api url '%s'", apiEndpoint)
			}
			apiPort = uint16(port)
		}

		if err := netcheck.CheckTCPConnect(apiHost, apiPort, timeout); err != nil {
			logger.Errorf("failed to connect to api server @ %s:%d your device might not come online",
				apiEndpoint, apiPort)
			return migerr.Displayed()
		}
		logger.Infof("connection to api: %s:%d is ok", apiHost, apiPort)
	}

	if cfg.Balena.IsCheckVpn() {
		vpnEndpoint, err := b.getVpnEndpoint()
		if err != nil {
			return err
		}
		vpnPort, err := b.getVpnPort()
		if err != nil {
			return err
		}

		if err := netcheck.CheckTCPConnect(vpnEndpoint, vpnPort, timeout); err != nil {
			logger.Errorf("failed to connect to vpn server @ %s:%d your device might not come online",
				vpnEndpoint, vpnPort)
			return migerr.Displayed()
		}
		logger.Infof("connection to vpn: %s:%d is ok", vpnEndpoint, vpnPort)
	}

	return nil
}
