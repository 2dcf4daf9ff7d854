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
	"testing"

	"go.viam.com/test"
)

func TestBoardTypeFromUname(t *testing.T) {
	test.That(t, boardTypeFromUname("3.8.13-bone47", "armv7l"), test.ShouldEqual, BoardBeagleBone)
	test.That(t, boardTypeFromUname("3.2.34 ", "armv7l"), test.ShouldEqual, BoardBeagleBone)
	test.That(t, boardTypeFromUname("4.19.94-ti-r42", "armv7l"), test.ShouldEqual, BoardBeagleBone)
	test.That(t, boardTypeFromUname("6.1.0-18-amd64", "x86_64"), test.ShouldEqual, BoardVirtual)
	test.That(t, boardTypeFromUname("6.5.0-1012-raspi", "aarch64"), test.ShouldEqual, BoardVirtual)
}
