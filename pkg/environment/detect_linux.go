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
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// AutoDetectBoardType detects the board type based on the environment.
func AutoDetectBoardType(log zerolog.Logger) string {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		log.Warn().Err(err).Msg("Failed to get uname, assuming beaglebone")
		return BoardBeagleBone
	}
	release := unix.ByteSliceToString(name.Release[:])
	machine := unix.ByteSliceToString(name.Machine[:])
	result := boardTypeFromUname(release, machine)
	log.Debug().
		Str("release", release).
		Str("machine", machine).
		Str("board", result).
		Msg("Detected board type")
	return result
}
