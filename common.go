package mosquittobuild

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Process hooks, swapped out in tests.
var (
	execCommandContext = exec.CommandContext
	execLookPath       = exec.LookPath
)

// runCommonBuild executes the standard 3-step build process.
//
// If any step fails, processing stops and the error is returned with
// Success=false. Subsequent steps are not executed.
func runCommonBuild(ctx context.Context, config *Config, sourceDir string, steps CommonBuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Success: false,
		Output:  []string{},
	}

	// Step 1: Configure
	if err := steps.ConfigureFunc(ctx, config, sourceDir, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Compile
	if err := steps.BuildFunc(ctx, config, sourceDir, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 3: Locate the artifact
	artifact, err := steps.LocateFunc(config, sourceDir)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Artifact = artifact
	result.Success = true
	return result, nil
}

// command describes one external process invocation.
type command struct {
	Name string
	Args []string
	Dir  string
}

func (c command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// runCommand runs c to completion and returns its combined output split
// into lines. A non-zero exit is returned as an error alongside the output.
func runCommand(ctx context.Context, c command) ([]string, error) {
	cmd := execCommandContext(ctx, c.Name, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}

	output, err := cmd.CombinedOutput()
	lines := splitOutput(output)
	if err != nil {
		return lines, fmt.Errorf("%s: %w", c.String(), err)
	}
	return lines, nil
}

func splitOutput(output []byte) []string {
	text := strings.TrimRight(string(output), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func joinPath(elem ...string) string {
	return filepath.Join(elem...)
}

// locateArtifact verifies the library exists at dir/file.
func locateArtifact(dir, file, includeDir string) (*Artifact, error) {
	artifact := &Artifact{LibDir: dir, FileName: file, IncludeDir: includeDir}
	info, err := os.Stat(artifact.Path())
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, artifact.Path())
	}
	return artifact, nil
}
