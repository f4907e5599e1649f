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

// Package netcheck probes the network services a migrated device will depend
// on. A probe is a single bounded-timeout connection attempt, callers decide
// whether a failed probe is fatal.
package netcheck

import (
	"net"
	"strconv"
	"time"

	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// CheckTCPConnect resolves host and attempts one TCP connection to the first
// resolved address, bounded by timeout. The connection is closed immediately
// on success. There are no retries and no fallback to further addresses.
func CheckTCPConnect(host string, port uint16, timeout time.Duration) error {
	endpoint := net.JoinHostPort(host, strconv.Itoa(int(port)))

	addrs, err := net.LookupHost(host)
	if err != nil {
		return migerr.Wrap(err, migerr.KindUpstream,
			"failed to resolve host address: '%s'", endpoint)
	}
	if len(addrs) == 0 {
		return migerr.New(migerr.KindInvalidState,
			"no results from name resolution for: '%s'", endpoint)
	}

	addr := net.JoinHostPort(addrs[0], strconv.Itoa(int(port)))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return migerr.Wrap(err, migerr.KindUpstream,
			"failed to connect to: '%s' with timeout: %s", endpoint, timeout)
	}
	conn.Close()
	return nil
}
