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

import "regexp"

// FileType is the closed set of artifact roles the migrator recognizes.
type FileType int

const (
	// OSImage is a gzipped raw balena OS disk image.
	OSImage FileType = iota
	// KernelAMD64 is a stage2 kernel for AMD64 devices.
	KernelAMD64
	// KernelARMHF is a stage2 kernel for ARMHF devices.
	KernelARMHF
	// KernelI386 is a stage2 kernel for I386 devices.
	KernelI386
	// InitRD is the gzipped stage2 initramfs cpio archive.
	InitRD
	// Json is the balena config.json provisioning file. The signature is a
	// plain-text heuristic, JSON-ness is not verified here.
	Json
	// Text is a plain text file.
	Text
	// DTB is a device tree blob.
	DTB
)

// Description returns the human readable role description used in error
// messages.
func (t FileType) Description() string {
	switch t {
	case OSImage:
		return "balena OS image"
	case KernelAMD64:
		return "balena migrate kernel image for AMD64"
	case KernelARMHF:
		return "balena migrate kernel image for ARMHF"
	case KernelI386:
		return "balena migrate kernel image for I386"
	case InitRD:
		return "balena migrate initramfs"
	case DTB:
		return "Device Tree Blob"
	case Json:
		return "balena config.json file"
	case Text:
		return "Text file"
	default:
		return "unknown file type"
	}
}

// Signature patterns matched against the brief output of 'file -bz'.
// file on ubuntu-14.04 reports x86 boot sector for image and kernel files.
var (
	osImageTypeRegex     = regexp.MustCompile(`^(DOS/MBR boot sector|x86 boot sector).*\(gzip compressed data.*\)$`)
	initrdTypeRegex      = regexp.MustCompile(`^ASCII cpio archive.*\(gzip compressed data.*\)$`)
	jsonTypeRegex        = regexp.MustCompile(`^ASCII text.*$`)
	textTypeRegex        = regexp.MustCompile(`^ASCII text.*$`)
	kernelAMD64TypeRegex = regexp.MustCompile(`^(Linux kernel x86 boot executable bzImage|x86 boot sector).*$`)
	kernelARMHFTypeRegex = regexp.MustCompile(`^Linux kernel ARM boot executable zImage.*$`)
	kernelI386TypeRegex  = regexp.MustCompile(`^Linux kernel i386 boot executable bzImage.*$`)
	// TODO: the generic 'data' answer false-positive-matches arbitrary
	// binaries, read the d00dfeed magic directly instead of trusting file
	dtbTypeRegex = regexp.MustCompile(`^(Device Tree Blob|data).*$`)
)

func (t FileType) pattern() *regexp.Regexp {
	switch t {
	case OSImage:
		return osImageTypeRegex
	case KernelAMD64:
		return kernelAMD64TypeRegex
	case KernelARMHF:
		return kernelARMHFTypeRegex
	case KernelI386:
		return kernelI386TypeRegex
	case InitRD:
		return initrdTypeRegex
	case Json:
		return jsonTypeRegex
	case Text:
		return textTypeRegex
	case DTB:
		return dtbTypeRegex
	default:
		return nil
	}
}
