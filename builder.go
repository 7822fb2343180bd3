package mosquittobuild

import "context"

// NativeBuilder defines the interface every native build strategy implements.
//
// A strategy knows how to drive one build system (CMake, plain make) over the
// mosquitto source tree and where that build system leaves the compiled
// library and headers.
//
// # Lifecycle
//
//  1. CanBuild() - the factory asks each strategy whether it handles the target
//  2. Build() - the chosen strategy compiles the library and locates the artifact
//
// Selection happens once per pipeline run; the same strategy is used for the
// whole build.
type NativeBuilder interface {
	// Name returns the human-readable name of this builder.
	//
	// This name is used in error messages and logs.
	// Examples: "CMake", "Makefile"
	Name() string

	// CanBuild reports whether this builder handles the target platform when
	// running on host.
	CanBuild(target, host Platform) bool

	// Build compiles libmosquitto from sourceDir and returns the result.
	//
	// Returns:
	//   - BuildResult with Success=true and Artifact set on success
	//   - BuildResult with Success=false and Error on failure; the error wraps
	//     ErrNativeBuild for tool failures and ErrArtifactMissing when the
	//     tools succeeded but no library was produced
	Build(ctx context.Context, config *Config, sourceDir string) (*BuildResult, error)
}
