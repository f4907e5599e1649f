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

//go:build !windows
// +build !windows

package fileinfo

import (
	"strings"

	"github.com/balena-os/balena-migrate/migrator/cmdexec"
	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// IsType asks the external file utility for a brief content description and
// matches it against the signature pattern of the expected role. A utility
// failure or empty answer is a hard error, distinct from "did not match".
func (fi *FileInfo) IsType(ctx context.T, ftype FileType) (bool, error) {
	cmdRes, err := ctx.Commands().Run(cmdexec.FileCmd, []string{"-bz", fi.Path}, true)
	if err != nil {
		return false, err
	}
	if !cmdRes.Success() || cmdRes.Stdout == "" {
		return false, migerr.New(migerr.KindInvalidParameter,
			"failed to determine type for file '%s'", fi.Path)
	}

	ctx.Log().Debugf("FileInfo.IsType: looking for: %s, found %s",
		ftype.Description(), cmdRes.Stdout)

	matched := ftype.pattern().MatchString(cmdRes.Stdout)
	if matched && ftype == DTB && strings.HasPrefix(cmdRes.Stdout, "data") {
		ctx.Log().Warnf("weak type match for '%s': file reports generic 'data'", fi.Path)
	}
	return matched, nil
}

// ExpectType turns a failed type match into a reported, user-visible error
// naming the expected role and the artifact path.
func (fi *FileInfo) ExpectType(ctx context.T, ftype FileType) error {
	isType, err := fi.IsType(ctx, ftype)
	if err != nil {
		return err
	}
	if !isType {
		message := "Could not determine expected file type '" +
			ftype.Description() + "' for file '" + fi.Path + "'"
		ctx.Log().Error(message)
		return migerr.New(migerr.KindInvalidParameter, "%s", message)
	}
	return nil
}
