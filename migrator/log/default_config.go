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

// seelogConfig helps build the migrator seelog configuration.

package log

// DefaultConfig returns a console-only seelog configuration with the given
// minimum level. The migrator is a one-shot command line tool, everything
// goes to stderr.
func DefaultConfig(minLevel string) []byte {
	switch minLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		minLevel = "info"
	}

	logConfig := `
<seelog type="sync" minlevel="` + minLevel + `">
    <outputs formatid="all">
        <console formatid="all"/>
    </outputs>
    <formats>
        <format id="all" format="%Time %LEVEL %Msg%n"/>
    </formats>
</seelog>
`
	return []byte(logConfig)
}
