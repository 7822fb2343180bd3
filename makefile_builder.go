package mosquittobuild

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
)

// Make program constants
const (
	makeProgram  = "make"
	nmakeProgram = "nmake"
)

// MakefileBuilder drives mosquitto's own Makefiles.
//
// Used for cross builds to Linux-like targets, where the toolchain is
// selected with a CROSS_COMPILE prefix and an explicit CC rather than a
// CMake toolchain file. Only the lib/ subdirectory is built, in place, so
// the library lands in <checkout>/lib and headers stay in <checkout>/include.
type MakefileBuilder struct{}

// Name returns the builder name
func (b *MakefileBuilder) Name() string {
	return "Makefile"
}

// RequiredTools returns the tools needed for Makefile builds
func (b *MakefileBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         makeProgram,
			Alternatives: []string{"gmake"},
			Purpose:      "Build automation tool",
		},
		{
			Name:         "gcc",
			Alternatives: []string{"clang", "cc"},
			Purpose:      "C compiler",
		},
	}
}

// CheckTools verifies that make and compiler are available
func (b *MakefileBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild handles Linux-like targets that differ from the host.
func (b *MakefileBuilder) CanBuild(target, host Platform) bool {
	return target.isLinuxLike() && target != host
}

// Build compiles the library using make
func (b *MakefileBuilder) Build(ctx context.Context, config *Config, sourceDir string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, sourceDir, CommonBuildSteps{
		ConfigureFunc: b.noConfigure,
		BuildFunc:     b.runMake,
		LocateFunc:    b.locate,
	})
}

// noConfigure is a no-op since mosquitto's config.mk is driven by variables
func (b *MakefileBuilder) noConfigure(ctx context.Context, config *Config, sourceDir string, result *BuildResult) error {
	if config.Build.Verbose {
		result.Output = append(result.Output, "Using mosquitto Makefiles, no configuration needed")
	}
	return nil
}

// makeArgs returns the make command line.
func (b *MakefileBuilder) makeArgs(config *Config) []string {
	args := []string{"-C", "lib"}

	if config.Build.Parallel > 0 {
		args = append(args, fmt.Sprintf("-j%d", config.Build.Parallel))
	}

	for _, feature := range DefaultFeatures() {
		args = append(args, feature.MakeVariable())
	}

	if config.Build.CrossCompiler != "" {
		args = append(args, fmt.Sprintf("CROSS_COMPILE=%s", config.Build.CrossCompiler))
	}
	if config.Build.CC != "" {
		args = append(args, fmt.Sprintf("CC=%s", config.Build.CC))
	}

	return args
}

// runMake executes make to compile the library
func (b *MakefileBuilder) runMake(ctx context.Context, config *Config, sourceDir string, result *BuildResult) error {
	c := command{
		Name: b.getMakeProgram(config),
		Args: b.makeArgs(config),
		Dir:  sourceDir,
	}

	output, err := runCommand(ctx, c)
	result.Output = append(result.Output, output...)
	appendTrace(config, result, c)

	if err != nil {
		return BuildError("Make", result.Output, err)
	}

	return nil
}

// locate verifies the library was built in the checkout
func (b *MakefileBuilder) locate(config *Config, sourceDir string) (*Artifact, error) {
	_, file := config.Target.LibraryLayout()
	return locateArtifact(filepath.Join(sourceDir, "lib"), file, filepath.Join(sourceDir, "include"))
}

// getMakeProgram returns the appropriate make program for the host
func (b *MakefileBuilder) getMakeProgram(config *Config) string {
	if config.Build.Make != "" {
		return config.Build.Make
	}

	switch runtime.GOOS {
	case platformWindows:
		return nmakeProgram
	default:
		return makeProgram
	}
}
