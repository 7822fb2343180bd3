package mosquittobuild

import (
	"errors"
	"strings"
	"testing"
)

func fakeLookPath(t *testing.T, available ...string) {
	t.Helper()

	orig := execLookPath
	t.Cleanup(func() { execLookPath = orig })

	execLookPath = func(name string) (string, error) {
		for _, tool := range available {
			if tool == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func TestCheckToolAvailable(t *testing.T) {
	fakeLookPath(t, "git")

	if err := CheckToolAvailable("git"); err != nil {
		t.Errorf("expected git to be found, got %v", err)
	}

	err := CheckToolAvailable("cmake")
	if !errors.Is(err, ErrToolMissing) {
		t.Fatalf("expected ErrToolMissing, got %v", err)
	}
}

func TestCheckRequiredToolsAlternatives(t *testing.T) {
	fakeLookPath(t, "gmake", "clang")

	err := CheckRequiredTools((&MakefileBuilder{}).RequiredTools())
	if err != nil {
		t.Errorf("expected alternatives to satisfy requirements, got %v", err)
	}
}

func TestCheckRequiredToolsReportsAllMissing(t *testing.T) {
	fakeLookPath(t)

	err := CheckRequiredTools([]ToolRequirement{
		{Name: "cmake", Purpose: "CMake build system"},
		gitRequirement,
		{Name: "pkg-config", Optional: true},
	})

	if !errors.Is(err, ErrToolMissing) {
		t.Fatalf("expected ErrToolMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "cmake (CMake build system), git (Source checkout)") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if strings.Contains(err.Error(), "pkg-config") {
		t.Errorf("optional tool reported as missing: %q", err.Error())
	}
}

func TestPipelineRequiredTools(t *testing.T) {
	cfg := defaultConfig()
	cfg.Target = Platform{GOOS: "linux", GOARCH: "amd64"}
	cfg.Bindings.Generate = true

	tools, err := NewPipeline(cfg, WithHost(cfg.Target)).RequiredTools()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	if names[0] != "git" || names[1] != "cmake" || names[len(names)-1] != "c-for-go" {
		t.Errorf("unexpected tool list %v", names)
	}
}
