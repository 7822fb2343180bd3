package mosquittobuild

import (
	"errors"
	"fmt"
)

// ExitArtifactMissing is the process exit status reserved for a native
// build that finished without producing the expected shared library.
const ExitArtifactMissing = 103

// ExitFailure is the exit status for every other failure.
const ExitFailure = 1

// Sentinel errors that can be checked with errors.Is().

// ErrCheckout is returned when cloning, fetching or checking out the
// upstream source fails.
var ErrCheckout = errors.New("source checkout failed")

// ErrHashMismatch is returned when the checked out HEAD differs from the
// pinned commit hash.
var ErrHashMismatch = errors.New("checked out commit does not match pinned hash")

// ErrNativeBuild is returned when the native build tool exits non-zero.
var ErrNativeBuild = errors.New("native build failed")

// ErrArtifactMissing is returned when the native build completed but the
// shared library is not where it should be.
var ErrArtifactMissing = errors.New("native library artifact not found")

// ErrBindings is returned when binding generation or publication fails.
var ErrBindings = errors.New("binding generation failed")

// ErrToolMissing is returned when a required external tool is not in PATH.
var ErrToolMissing = errors.New("required tool missing")

// ErrNoBuilder is returned when no native build strategy handles a target.
var ErrNoBuilder = errors.New("no native builder for target")

// Stage names a step of the build pipeline.
type Stage string

// Pipeline stages, in execution order.
const (
	StageInit     Stage = "init"
	StageCheckout Stage = "checkout"
	StageBuild    Stage = "build"
	StageBindings Stage = "bindings"
	StageLink     Stage = "link"
	StageDone     Stage = "done"
)

// StageError records which pipeline stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ExitCode maps a pipeline error to a process exit status.
//
//   - nil: 0
//   - ErrArtifactMissing anywhere in the chain: ExitArtifactMissing (103)
//   - anything else: ExitFailure (1)
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrArtifactMissing):
		return ExitArtifactMissing
	default:
		return ExitFailure
	}
}
