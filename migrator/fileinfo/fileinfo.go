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

// Package fileinfo finds the location and size of a migration artifact,
// given as an absolute path or relative to the current directory or the
// work directory, and checks a guess of the file contents against the
// expected artifact role.
package fileinfo

import (
	"os"
	"path/filepath"

	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/fileutil"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// FileInfo describes an artifact that was confirmed to exist on disk. It is
// never constructed for a non-existent file.
type FileInfo struct {
	// Path is the canonicalized absolute path of the artifact.
	Path string
	// Size is the artifact size in bytes.
	Size int64
}

// New resolves file against the current directory first and the work
// directory second. Absence is a valid outcome and is reported as (nil, nil),
// callers must check for it explicitly. Failure to stat an existing path is
// an error.
func New(ctx context.T, file string, workDir string) (*FileInfo, error) {
	ctx.Log().Tracef("FileInfo: entered with file: '%s', work_dir: '%s'", file, workDir)

	checkedPath := ""
	if fileutil.Exists(file) {
		checkedPath = file
	} else if !filepath.IsAbs(file) {
		searchPath := filepath.Join(workDir, file)
		if fileutil.Exists(searchPath) {
			checkedPath = searchPath
		} else {
			// tried to build the path using the work dir, nothing found
			return nil, nil
		}
	} else {
		// absolute path was not found, no hope
		return nil, nil
	}

	absPath, err := filepath.Abs(checkedPath)
	if err != nil {
		return nil, migerr.Wrap(err, migerr.KindUpstream,
			"failed to create absolute path from '%s'", checkedPath)
	}
	absPath, err = filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, migerr.Wrap(err, migerr.KindUpstream,
			"failed to canonicalize path '%s'", checkedPath)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, migerr.Wrap(err, migerr.KindUpstream,
			"failed to retrieve metadata for path '%s'", absPath)
	}

	return &FileInfo{Path: absPath, Size: info.Size()}, nil
}
