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

// Package digest verifies configured artifact checksums. The accepted
// algorithms are the legacy-weak digests balena image downloads ship with,
// they guard against truncated or mixed-up files, not against an adversary.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/balena-os/balena-migrate/migrator/context"
	"github.com/balena-os/balena-migrate/migrator/fileinfo"
	"github.com/balena-os/balena-migrate/migrator/migerr"
)

// HashInfo is the optional expected digest attached to a file reference in
// the migrate configuration. Exactly one algorithm field may be set.
type HashInfo struct {
	Md5  string `yaml:"md5,omitempty"`
	Sha1 string `yaml:"sha1,omitempty"`
}

// Algorithm returns the configured algorithm name and expected hex digest.
func (h *HashInfo) Algorithm() (algorithm string, expected string, err error) {
	switch {
	case h.Md5 != "" && h.Sha1 != "":
		return "", "", migerr.New(migerr.KindInvalidParameter,
			"multiple hash algorithms configured, expected one of md5, sha1")
	case h.Md5 != "":
		return "md5", h.Md5, nil
	case h.Sha1 != "":
		return "sha1", h.Sha1, nil
	default:
		return "", "", migerr.New(migerr.KindInvalidParameter,
			"empty hash configured, expected one of md5, sha1")
	}
}

// Check computes the artifact's digest under the configured algorithm and
// compares it case-insensitively to the expected hex string. A nil hash
// means "trust by type classification alone" and passes.
func Check(ctx context.T, info *fileinfo.FileInfo, h *HashInfo) error {
	if h == nil {
		return nil
	}

	algorithm, expected, err := h.Algorithm()
	if err != nil {
		return err
	}

	var hasher hash.Hash
	switch algorithm {
	case "md5":
		hasher = md5.New()
	case "sha1":
		hasher = sha1.New()
	}

	file, err := os.Open(info.Path)
	if err != nil {
		return migerr.Wrap(err, migerr.KindUpstream,
			"cannot open file '%s' for digest", info.Path)
	}
	defer file.Close()

	if _, err := io.Copy(hasher, file); err != nil {
		return migerr.Wrap(err, migerr.KindUpstream,
			"failed to read file '%s' for digest", info.Path)
	}

	computed := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(computed, expected) {
		return migerr.New(migerr.KindInvalidParameter,
			"%s mismatch for file '%s': expected %s, got %s",
			algorithm, info.Path, expected, computed)
	}

	ctx.Log().Debugf("%s digest ok for '%s'", algorithm, info.Path)
	return nil
}
