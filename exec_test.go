package mosquittobuild

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// invocation is one process the code under test tried to start.
type invocation struct {
	Name string
	Args []string
}

func (i invocation) String() string {
	return strings.TrimSpace(i.Name + " " + strings.Join(i.Args, " "))
}

// fakeExec replaces execCommandContext for the duration of a test. The
// handler runs in the test process, so it can create files to simulate the
// side effects of the real tool, and returns the exit status the helper
// process should report.
type fakeExec struct {
	mu      sync.Mutex
	calls   []invocation
	handler func(call invocation) int
}

func installFakeExec(t *testing.T, handler func(call invocation) int) *fakeExec {
	t.Helper()

	fe := &fakeExec{handler: handler}
	orig := execCommandContext
	t.Cleanup(func() { execCommandContext = orig })

	execCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		call := invocation{Name: name, Args: append([]string{}, args...)}

		fe.mu.Lock()
		fe.calls = append(fe.calls, call)
		fe.mu.Unlock()

		code := 0
		if fe.handler != nil {
			code = fe.handler(call)
		}
		return helperCommand(code)(ctx, name, args...)
	}

	return fe
}

func (fe *fakeExec) Calls() []invocation {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return append([]invocation{}, fe.calls...)
}

// Ran reports whether any recorded call started program.
func (fe *fakeExec) Ran(program string) bool {
	for _, call := range fe.Calls() {
		if call.Name == program {
			return true
		}
	}
	return false
}

func helperCommand(exitCode int) func(context.Context, string, ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		_ = name
		_ = args
		cmdArgs := []string{"-test.run=TestHelperProcess", "--", strconv.Itoa(exitCode)}
		cmd := exec.CommandContext(ctx, os.Args[0], cmdArgs...) // #nosec G204 - helper process for testing
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		return cmd
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	for i := 0; i < len(os.Args); i++ {
		if os.Args[i] == "--" && i+1 < len(os.Args) {
			code, err := strconv.Atoi(os.Args[i+1])
			if err != nil {
				os.Exit(1)
			}
			os.Exit(code)
		}
	}

	os.Exit(0)
}

// initRepo creates a git repository at dir with one commit and returns the
// commit hash. Content, author and time are fixed, so every call yields the
// same hash.
func initRepo(t *testing.T, dir string) string {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "include"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "include", "mosquitto.h"), []byte("int mosquitto_lib_init(void);\n"), 0o644))
	_, err = wt.Add("include/mosquitto.h")
	require.NoError(t, err)

	hash, err := wt.Commit("import mosquitto", &git.CommitOptions{
		Author: &object.Signature{Name: "builder", Email: "builder@example.com", When: time.Unix(1609459200, 0).UTC()},
	})
	require.NoError(t, err)

	return hash.String()
}

// writeFile creates path and any missing parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// testConfig returns a valid configuration rooted in a temporary directory,
// building for linux/amd64 with bindings disabled.
func testConfig(t *testing.T) *Config {
	t.Helper()

	out := t.TempDir()
	cfg := defaultConfig()
	cfg.Output.OutDir = out
	cfg.Bindings.Dir = filepath.Join(out, "bindings")
	cfg.Target = Platform{GOOS: "linux", GOARCH: "amd64"}
	require.NoError(t, cfg.Validate())
	return cfg
}
