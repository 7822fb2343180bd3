package mosquittobuild

import "context"

// Artifact describes the output of a native build.
//
// After a build completes, this structure provides:
//   - LibDir, the directory holding the compiled shared library
//   - FileName, the platform-specific library filename (libmosquitto.so.1, ...)
//   - IncludeDir, the directory holding mosquitto.h
type Artifact struct {
	LibDir     string
	FileName   string
	IncludeDir string
}

// Path returns the full path to the shared library.
func (a *Artifact) Path() string {
	return joinPath(a.LibDir, a.FileName)
}

// BuildResult contains the output and status of a native build.
type BuildResult struct {
	Success  bool      // True if build completed and the artifact was found
	Output   []string  // Lines of output from the build tools
	Artifact *Artifact // Located library, nil on failure
	Error    error     // Error if build failed, nil otherwise
}

// Feature is one native build toggle with its spelling in each build system.
type Feature struct {
	CMake   string // CMake cache variable, e.g. WITH_TLS
	Make    string // config.mk variable, e.g. WITH_TLS
	Enabled bool
}

// CMakeDefine renders the feature as a -D flag.
func (f Feature) CMakeDefine() string {
	value := "off"
	if f.Enabled {
		value = "on"
	}
	return "-D" + f.CMake + "=" + value
}

// MakeVariable renders the feature as a make variable assignment.
func (f Feature) MakeVariable() string {
	value := "no"
	if f.Enabled {
		value = "yes"
	}
	return f.Make + "=" + value
}

// DefaultFeatures returns the fixed feature set: every optional component is
// off except bundled dependencies, giving the smallest library with no
// optional runtime dependencies.
func DefaultFeatures() []Feature {
	return []Feature{
		{CMake: "WITH_BUNDLED_DEPS", Make: "WITH_BUNDLED_DEPS", Enabled: true},
		{CMake: "WITH_EC", Make: "WITH_EC"},
		{CMake: "WITH_TLS", Make: "WITH_TLS"},
		{CMake: "WITH_TLS_PSK", Make: "WITH_TLS_PSK"},
		{CMake: "WITH_APPS", Make: "WITH_APPS"},
		{CMake: "WITH_PLUGINS", Make: "WITH_PLUGINS"},
		{CMake: "DOCUMENTATION", Make: "WITH_DOCS"},
		{CMake: "WITH_CJSON", Make: "WITH_CJSON"},
	}
}

// CommonBuildSteps defines the 3-step pattern shared by the native builders:
//  1. Configure: prepare the build (cmake configure, nothing for make)
//  2. Build: compile (and install) the library
//  3. Locate: find the artifact and verify it exists
//
// Example usage in a builder:
//
//	return runCommonBuild(ctx, config, sourceDir, CommonBuildSteps{
//	    ConfigureFunc: b.configure,
//	    BuildFunc:     b.compile,
//	    LocateFunc:    b.locate,
//	})
type CommonBuildSteps struct {
	// ConfigureFunc prepares the build environment
	ConfigureFunc func(ctx context.Context, config *Config, sourceDir string, result *BuildResult) error

	// BuildFunc compiles the library
	BuildFunc func(ctx context.Context, config *Config, sourceDir string, result *BuildResult) error

	// LocateFunc returns the built artifact, or ErrArtifactMissing
	LocateFunc func(config *Config, sourceDir string) (*Artifact, error)
}
