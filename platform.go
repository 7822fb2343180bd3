package mosquittobuild

import (
	"fmt"
	"runtime"
)

// Platform constants
const (
	platformWindows = "windows"
	platformDarwin  = "darwin"
	platformIOS     = "ios"
	platformLinux   = "linux"
	platformAndroid = "android"
)

// libraryName is the name passed to the linker (-lmosquitto).
const libraryName = "mosquitto"

// soVersion is libmosquitto's ABI version. It is independent of the
// release version (2.x still ships libmosquitto.so.1).
const soVersion = 1

// Platform identifies a build target by Go's GOOS/GOARCH pair.
type Platform struct {
	GOOS   string
	GOARCH string
}

// HostPlatform returns the platform this process runs on.
func HostPlatform() Platform {
	return Platform{GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
}

// Triple returns the "<goos>-<goarch>" identifier used to key cached
// bindings, e.g. "linux-amd64".
func (p Platform) Triple() string {
	return fmt.Sprintf("%s-%s", p.GOOS, p.GOARCH)
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return p.Triple()
}

// LibraryLayout returns the install subdirectory holding the shared library
// and the library's filename for this platform.
func (p Platform) LibraryLayout() (dir, file string) {
	switch p.GOOS {
	case platformDarwin, platformIOS:
		return "lib", fmt.Sprintf("lib%s.%d.dylib", libraryName, soVersion)
	case platformWindows:
		return "bin", libraryName + ".dll"
	default:
		return "lib", fmt.Sprintf("lib%s.so.%d", libraryName, soVersion)
	}
}

// isLinuxLike reports whether the platform builds with GNU make conventions.
func (p Platform) isLinuxLike() bool {
	return p.GOOS == platformLinux || p.GOOS == platformAndroid
}
