package mosquittobuild

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nativeToolchain simulates git, cmake and c-for-go. When install is false
// cmake succeeds without producing the library.
func nativeToolchain(t *testing.T, install bool) func(call invocation) int {
	var head string
	clone := cloneInto(t, &head)
	translate := translatorOutput(t, map[string]string{"mosquitto.go": "package mosquitto\n"})

	return func(call invocation) int {
		switch call.Name {
		case gitProgram:
			return clone(call)
		case cmakeProgram:
			if install && call.Args[0] == "--install" {
				prefix := filepath.Dir(call.Args[1])
				writeFile(t, filepath.Join(prefix, "lib", "libmosquitto.so.1"), "ELF")
				writeFile(t, filepath.Join(prefix, "include", "mosquitto.h"), "int mosquitto_lib_init(void);\n")
			}
			return 0
		default:
			return translate(call)
		}
	}
}

func newTestPipeline(cfg *Config, stdout *bytes.Buffer) (*Pipeline, billy.Filesystem) {
	cache := memfs.New()
	return NewPipeline(cfg,
		WithStdout(stdout),
		WithHost(cfg.Target),
		WithCacheFS(cache),
	), cache
}

func TestPipelineDefaultRun(t *testing.T) {
	cfg := testConfig(t)
	fe := installFakeExec(t, nativeToolchain(t, true))

	var stdout bytes.Buffer
	pipeline, cache := newTestPipeline(cfg, &stdout)

	result, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StageDone, result.Stage)
	assert.Equal(t, "CMake", result.Builder)
	assert.False(t, result.Bindings.Generated)

	libDir := filepath.Join(cfg.Output.OutDir, "lib")
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	assert.Equal(t, []string{
		"cgo:link-search=native=" + libDir,
		"cgo:link-lib=mosquitto",
	}, lines)

	assert.False(t, fe.Ran("c-for-go"))
	exists, err := snapshotExists(cache, SnapshotName("2.0.4", cfg.Target))
	require.NoError(t, err)
	assert.False(t, exists, "no binding snapshot in the default run")
	_, err = os.Stat(filepath.Join(cfg.Output.OutDir, scratchArchive))
	assert.True(t, os.IsNotExist(err))
}

func TestPipelineWithBindings(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bindings.Generate = true
	cfg.Output.CgoFile = filepath.Join(cfg.Output.OutDir, "zcgo_flags.go")
	installFakeExec(t, nativeToolchain(t, true))

	var stdout bytes.Buffer
	pipeline, cache := newTestPipeline(cfg, &stdout)

	result, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Bindings.Published)
	exists, err := snapshotExists(cache, SnapshotName("2.0.4", cfg.Target))
	require.NoError(t, err)
	assert.True(t, exists)

	cgo, err := os.ReadFile(cfg.Output.CgoFile)
	require.NoError(t, err)
	assert.Contains(t, string(cgo), "-lmosquitto")
	assert.Len(t, result.Directives.Lines(), 2)
}

func TestPipelineArtifactMissing(t *testing.T) {
	cfg := testConfig(t)
	fe := installFakeExec(t, nativeToolchain(t, false))

	var stdout bytes.Buffer
	pipeline, _ := newTestPipeline(cfg, &stdout)

	result, err := pipeline.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactMissing)
	assert.Equal(t, ExitArtifactMissing, ExitCode(err))
	assert.Equal(t, StageBuild, result.Stage)
	assert.Empty(t, stdout.String(), "no directives after a failed build")
	assert.False(t, fe.Ran("c-for-go"))

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageBuild, stageErr.Stage)
}

func TestPipelineHashMismatchSkipsBuild(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Hash = "3333333333333333333333333333333333333333"
	fe := installFakeExec(t, nativeToolchain(t, true))

	var stdout bytes.Buffer
	pipeline, _ := newTestPipeline(cfg, &stdout)

	result, err := pipeline.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHashMismatch)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Equal(t, StageCheckout, result.Stage)
	assert.False(t, fe.Ran(cmakeProgram), "build must not start after a hash mismatch")
	assert.Empty(t, stdout.String())
}

func TestPipelineFetchFailureSkipsBuild(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Hash = "not-a-commit"
	toolchain := nativeToolchain(t, true)
	fe := installFakeExec(t, func(call invocation) int {
		if call.Name == gitProgram && call.Args[0] == "fetch" {
			return 128
		}
		return toolchain(call)
	})

	var stdout bytes.Buffer
	pipeline, _ := newTestPipeline(cfg, &stdout)

	_, err := pipeline.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCheckout)
	assert.False(t, fe.Ran(cmakeProgram))
	assert.Empty(t, stdout.String())
}

func TestPipelineNativeBuildFailure(t *testing.T) {
	cfg := testConfig(t)
	toolchain := nativeToolchain(t, true)
	installFakeExec(t, func(call invocation) int {
		if call.Name == cmakeProgram && call.Args[0] == "--build" {
			return 2
		}
		return toolchain(call)
	})

	var stdout bytes.Buffer
	pipeline, _ := newTestPipeline(cfg, &stdout)

	_, err := pipeline.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNativeBuild)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Empty(t, stdout.String())
}

func TestPipelineCrossBuildUsesMakefile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Target = Platform{GOOS: "linux", GOARCH: "arm64"}
	cfg.Build.CrossCompiler = "aarch64-linux-gnu-"

	var head string
	clone := cloneInto(t, &head)
	fe := installFakeExec(t, func(call invocation) int {
		if call.Name == "make" {
			writeFile(t, filepath.Join(cfg.CheckoutDir(), "lib", "libmosquitto.so.1"), "ELF")
			return 0
		}
		return clone(call)
	})

	var stdout bytes.Buffer
	pipeline := NewPipeline(cfg,
		WithStdout(&stdout),
		WithHost(Platform{GOOS: "linux", GOARCH: "amd64"}),
		WithCacheFS(memfs.New()),
	)

	result, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Makefile", result.Builder)
	assert.False(t, fe.Ran(cmakeProgram))
	assert.Contains(t, stdout.String(), "cgo:link-search=native="+filepath.Join(cfg.CheckoutDir(), "lib"))
}

// defaultLayoutConfig returns the built-in configuration, with its relative
// output and checkout directories, rooted in a fresh working directory.
func defaultLayoutConfig(t *testing.T, target Platform) (*Config, string) {
	t.Helper()

	t.Chdir(t.TempDir())
	root, err := os.Getwd()
	require.NoError(t, err)

	cfg := defaultConfig()
	cfg.Target = target
	require.Equal(t, "build", cfg.Output.OutDir)
	require.NoError(t, cfg.Validate())
	return cfg, root
}

func TestPipelineDefaultLayoutCMake(t *testing.T) {
	target := Platform{GOOS: "linux", GOARCH: "amd64"}
	cfg, root := defaultLayoutConfig(t, target)

	toolchain := nativeToolchain(t, true)
	var sourceArg string
	installFakeExec(t, func(call invocation) int {
		if call.Name == cmakeProgram && call.Args[0] == "-S" {
			sourceArg = call.Args[1]
			assert.True(t, filepath.IsAbs(sourceArg), "cmake -S must not depend on the working directory: %s", sourceArg)
			assert.DirExists(t, sourceArg)
		}
		return toolchain(call)
	})

	var stdout bytes.Buffer
	pipeline := NewPipeline(cfg, WithStdout(&stdout), WithHost(target), WithCacheFS(memfs.New()))

	result, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "build", "mosquitto"), sourceArg)
	libDir := filepath.Join(root, "build", "lib")
	assert.Equal(t, libDir, result.Artifact.LibDir)
	assert.Equal(t, "cgo:link-search=native="+libDir+"\ncgo:link-lib=mosquitto\n", stdout.String())
}

func TestPipelineDefaultLayoutMakefile(t *testing.T) {
	cfg, root := defaultLayoutConfig(t, Platform{GOOS: "linux", GOARCH: "arm64"})

	var head string
	clone := cloneInto(t, &head)
	installFakeExec(t, func(call invocation) int {
		if call.Name == "make" {
			writeFile(t, filepath.Join(cfg.CheckoutDir(), "lib", "libmosquitto.so.1"), "ELF")
			return 0
		}
		return clone(call)
	})

	var stdout bytes.Buffer
	pipeline := NewPipeline(cfg,
		WithStdout(&stdout),
		WithHost(Platform{GOOS: "linux", GOARCH: "amd64"}),
		WithCacheFS(memfs.New()),
	)

	result, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	libDir := filepath.Join(root, "build", "mosquitto", "lib")
	assert.Equal(t, "Makefile", result.Builder)
	assert.Equal(t, libDir, result.Artifact.LibDir)
	assert.Equal(t, filepath.Join(root, "build", "mosquitto", "include"), result.Artifact.IncludeDir)
	assert.Equal(t, "cgo:link-search=native="+libDir+"\ncgo:link-lib=mosquitto\n", stdout.String())
}
