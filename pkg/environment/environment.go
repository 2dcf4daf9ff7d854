//    Copyright 2018 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package environment

import (
	"strings"
)

const (
	// BoardBeagleBone is the board type of all BeagleBone variants.
	BoardBeagleBone = "beaglebone"
	// BoardVirtual is used on hosts that are not a supported board.
	BoardVirtual = "virtual"
)

// boardTypeFromUname derives the board type from the kernel release
// & machine name.
func boardTypeFromUname(release, machine string) string {
	release = strings.ToLower(strings.TrimSpace(release))
	machine = strings.ToLower(strings.TrimSpace(machine))
	if strings.Contains(release, "bone") {
		return BoardBeagleBone
	}
	// 32-bit ARM hosts are assumed to be a BeagleBone
	if strings.HasPrefix(machine, "arm") {
		return BoardBeagleBone
	}
	return BoardVirtual
}
