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

// Parser contains logic for commandline handling flags
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	modeFlag     string
	imageFlag    string
	configFlag   string
	workDirFlag  string
	logLevelFlag string
	versionFlag  bool
)

// parseFlags displays flags and handles them
func parseFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flag.Usage = flagUsage

	flag.StringVar(&modeFlag, "mode", "", "")
	flag.StringVar(&imageFlag, "image", "", "")
	flag.StringVar(&configFlag, "config", "", "")
	flag.StringVar(&workDirFlag, "work_dir", "", "")
	flag.StringVar(&logLevelFlag, "log-level", "info", "")
	flag.BoolVar(&versionFlag, "version", false, "")

	flag.Parse()
}

// flagUsage displays a command-line friendly usage message
func flagUsage() {
	fmt.Fprintln(os.Stderr, "\nCommand-line Usage:")
	fmt.Fprintln(os.Stderr, "\t-mode MODE      \tmode of operation - agent, immediate or pretend")
	fmt.Fprintln(os.Stderr, "\t-image FILE     \tselect balena OS image")
	fmt.Fprintln(os.Stderr, "\t-config FILE    \tselect balena-migrate config file")
	fmt.Fprintln(os.Stderr, "\t-work_dir DIR   \tselect working directory")
	fmt.Fprintln(os.Stderr, "\t-log-level LEVEL\tset the log level (trace, debug, info, warn, error)")
	fmt.Fprintln(os.Stderr, "\t-version        \tprint the version and exit")
}
