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

//go:build windows
// +build windows

package fileinfo

import (
	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// IsType is not available on windows, there is no file utility to ask.
// Failing loudly beats assuming a file matches its expected role.
func (fi *FileInfo) IsType(ctx context.T, ftype FileType) (bool, error) {
	return false, migerr.New(migerr.KindNotImplemented,
		"file type classification is not implemented on this platform")
}

// ExpectType is not available on windows, see IsType.
func (fi *FileInfo) ExpectType(ctx context.T, ftype FileType) error {
	return migerr.New(migerr.KindNotImplemented,
		"file type classification is not implemented on this platform")
}
