package mosquittobuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Build tool constants
const (
	unixMakefiles = "Unix Makefiles"
	cmakeProgram  = "cmake"
	cmakeBuildDir = "cmake-build"
)

// CmakeBuilder handles CMake-based builds.
//
// The source tree is configured out-of-tree into <out>/cmake-build and
// installed into <out>, so the library ends up in <out>/lib (or <out>/bin
// on Windows) and the headers in <out>/include. Those directories are
// removed before configuring.
type CmakeBuilder struct{}

// Name returns the builder name
func (b *CmakeBuilder) Name() string {
	return "CMake"
}

// RequiredTools returns the tools needed for CMake builds
func (b *CmakeBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: cmakeProgram, Purpose: "CMake build system"},
		{
			Name:         "make",
			Alternatives: []string{"gmake", "ninja", "nmake"},
			Purpose:      "Build tool driven by CMake",
		},
		{
			Name:         "cc",
			Alternatives: []string{"gcc", "clang", "cl"},
			Purpose:      "C compiler",
		},
	}
}

// CheckTools verifies that cmake and a compiler are available
func (b *CmakeBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild accepts every target; CMake is the fallback strategy and is
// registered last.
func (b *CmakeBuilder) CanBuild(target, host Platform) bool {
	return true
}

// Build compiles libmosquitto using the cmake configure → build → install workflow
func (b *CmakeBuilder) Build(ctx context.Context, config *Config, sourceDir string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, sourceDir, CommonBuildSteps{
		ConfigureFunc: b.runConfigure,
		BuildFunc:     b.runBuild,
		LocateFunc:    b.locate,
	})
}

// configureArgs returns the cmake configure arguments.
func (b *CmakeBuilder) configureArgs(config *Config, sourceDir, outDir string) []string {
	args := []string{
		"-S", sourceDir,
		"-B", filepath.Join(outDir, cmakeBuildDir),
		fmt.Sprintf("-DCMAKE_INSTALL_PREFIX=%s", outDir),
		"-DCMAKE_INSTALL_LIBDIR=lib",
		"-DCMAKE_BUILD_TYPE=Release",
	}

	if generator := b.getGenerator(config); generator != "" {
		args = append(args, "-G", generator)
	}

	if config.Target.GOOS == platformDarwin {
		if arch := darwinArch(config.Target.GOARCH); arch != "" {
			args = append(args, fmt.Sprintf("-DCMAKE_OSX_ARCHITECTURES=%s", arch))
		}
	}

	for _, feature := range DefaultFeatures() {
		args = append(args, feature.CMakeDefine())
	}

	return args
}

// runConfigure executes cmake to configure the build
func (b *CmakeBuilder) runConfigure(ctx context.Context, config *Config, sourceDir string, result *BuildResult) error {
	outDir, err := filepath.Abs(config.Output.OutDir)
	if err != nil {
		return BuildError("CMake", result.Output, err)
	}

	if err := b.cleanInstall(config, outDir); err != nil {
		return BuildError("CMake", result.Output, err)
	}

	c := command{
		Name: cmakeProgram,
		Args: b.configureArgs(config, sourceDir, outDir),
		Dir:  sourceDir,
	}

	output, err := runCommand(ctx, c)
	result.Output = append(result.Output, output...)
	appendTrace(config, result, c)

	if err != nil {
		return BuildError("CMake", result.Output, err)
	}

	return nil
}

// cleanInstall removes the build tree and install directories left by an
// earlier run, so locate only ever sees this run's artifact.
func (b *CmakeBuilder) cleanInstall(config *Config, outDir string) error {
	libDir, _ := config.Target.LibraryLayout()
	for _, dir := range []string{cmakeBuildDir, libDir, "lib", "include"} {
		if err := os.RemoveAll(filepath.Join(outDir, dir)); err != nil {
			return err
		}
	}
	return nil
}

// runBuild compiles and installs the library
func (b *CmakeBuilder) runBuild(ctx context.Context, config *Config, sourceDir string, result *BuildResult) error {
	outDir, err := filepath.Abs(config.Output.OutDir)
	if err != nil {
		return BuildError("CMake Build", result.Output, err)
	}
	buildDir := filepath.Join(outDir, cmakeBuildDir)

	args := []string{"--build", buildDir, "--config", "Release"}
	if config.Build.Parallel > 0 {
		args = append(args, "--parallel", fmt.Sprintf("%d", config.Build.Parallel))
	}

	c := command{Name: cmakeProgram, Args: args, Dir: sourceDir}
	output, err := runCommand(ctx, c)
	result.Output = append(result.Output, output...)
	appendTrace(config, result, c)

	if err != nil {
		return BuildError("CMake Build", result.Output, err)
	}

	install := command{
		Name: cmakeProgram,
		Args: []string{"--install", buildDir, "--config", "Release"},
		Dir:  sourceDir,
	}
	installOutput, err := runCommand(ctx, install)
	result.Output = append(result.Output, installOutput...)
	appendTrace(config, result, install)

	if err != nil {
		return BuildError("CMake Install", result.Output, err)
	}

	return nil
}

// locate verifies the installed library exists
func (b *CmakeBuilder) locate(config *Config, sourceDir string) (*Artifact, error) {
	outDir, err := filepath.Abs(config.Output.OutDir)
	if err != nil {
		return nil, err
	}

	dir, file := config.Target.LibraryLayout()
	return locateArtifact(filepath.Join(outDir, dir), file, filepath.Join(outDir, "include"))
}

// getGenerator returns the CMake generator for the host
func (b *CmakeBuilder) getGenerator(config *Config) string {
	if config.Build.Generator != "" {
		return config.Build.Generator
	}

	// Let CMake pick Visual Studio or Ninja on Windows hosts
	if runtime.GOOS == platformWindows {
		return ""
	}
	return unixMakefiles
}

func darwinArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "arm64"
	default:
		return ""
	}
}
