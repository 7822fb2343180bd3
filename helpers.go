package mosquittobuild

import (
	"fmt"
	"strings"
)

// BuildError creates a standardized build error with output context.
//
// This helper formats build errors consistently across the native
// builders, including the tool output for debugging. The returned error
// wraps both ErrNativeBuild and err, so callers can match either.
//
// # Format
//
// With error and output:
//
//	CMake build failed: exit status 2
//
//	Build output:
//	-- Configuring incomplete, errors occurred!
//
// With error but no output:
//
//	CMake build failed: exit status 2
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.TrimSpace(strings.Join(output, "\n"))

	if err == nil {
		if outputStr != "" {
			return fmt.Errorf("%w: %s build failed\n\nBuild output:\n%s", ErrNativeBuild, builder, outputStr)
		}
		return fmt.Errorf("%w: %s build failed", ErrNativeBuild, builder)
	}

	if outputStr != "" {
		return fmt.Errorf("%w: %s build failed: %w\n\nBuild output:\n%s", ErrNativeBuild, builder, err, outputStr)
	}

	return fmt.Errorf("%w: %s build failed: %w", ErrNativeBuild, builder, err)
}

// appendTrace records the command and working directory in verbose mode.
func appendTrace(config *Config, result *BuildResult, c command) {
	if !config.Build.Verbose {
		return
	}
	result.Output = append(result.Output,
		fmt.Sprintf("Running: %s", c.String()),
		fmt.Sprintf("Working directory: %s", c.Dir))
}
