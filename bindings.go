package mosquittobuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/tools/txtar"
)

const (
	bindgenDir     = "bindgen"
	wrapperHeader  = "wrapper.h"
	manifestFile   = "mosquitto.yml"
	scratchArchive = "bindings.txtar"
)

// wrapperSource is the fixed header handed to the translator.
const wrapperSource = "#include <mosquitto.h>\n"

// Bindings describes the outcome of the binding generation step.
type Bindings struct {
	Generated   bool   // False when generation was disabled and skipped
	PackageDir  string // Generated Go package, ready to include in a build
	ScratchPath string // txtar bundle of PackageDir in the output directory
	CachePath   string // Version/platform keyed snapshot path
	Digest      string // BLAKE3 digest of the generated files
	Published   bool   // True when this run created the snapshot
	Drifted     bool   // True when an existing snapshot differs from this run's output
}

// translatorRequirement is the toolchain entry for binding generation.
func translatorRequirement(config *Config) ToolRequirement {
	return ToolRequirement{Name: config.Bindings.Translator, Purpose: "Go binding generator"}
}

// GenerateBindings translates mosquitto.h into a Go package.
//
// When config.Bindings.Generate is false nothing runs: the previously
// vendored snapshot is used as-is and the cache is left untouched.
//
// Otherwise the translator is run against a fixed wrapper header with the
// artifact's include directory as the only search path. The generated files
// are bundled into <out>/bindings.txtar and published to cache as
// bindings_mosquitto_<version>-<goos>-<goarch>.txtar, but only if that
// snapshot does not exist yet. An existing snapshot is never overwritten.
func GenerateBindings(ctx context.Context, config *Config, artifact *Artifact, cache billy.Filesystem, logger *slog.Logger) (*Bindings, error) {
	name := SnapshotName(config.LibraryVersion(), config.Target)
	result := &Bindings{CachePath: filepath.Join(config.Bindings.Dir, name)}

	if !config.Bindings.Generate {
		logger.Debug("binding generation disabled, using vendored bindings", "snapshot", result.CachePath)
		return result, nil
	}

	outDir, err := filepath.Abs(config.Output.OutDir)
	if err != nil {
		return nil, bindingsError("resolving output directory: %v", err)
	}

	workDir := filepath.Join(outDir, bindgenDir)
	if err := os.RemoveAll(workDir); err != nil {
		return nil, bindingsError("cleaning %s: %v", workDir, err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, bindingsError("creating %s: %v", workDir, err)
	}

	headerPath := filepath.Join(workDir, wrapperHeader)
	if err := os.WriteFile(headerPath, []byte(wrapperSource), 0o644); err != nil {
		return nil, bindingsError("writing wrapper header: %v", err)
	}

	manifest, err := newTranslatorManifest(config, artifact, headerPath).Marshal()
	if err != nil {
		return nil, bindingsError("encoding translator manifest: %v", err)
	}
	manifestPath := filepath.Join(workDir, manifestFile)
	if err := os.WriteFile(manifestPath, manifest, 0o644); err != nil {
		return nil, bindingsError("writing translator manifest: %v", err)
	}

	genDir := filepath.Join(workDir, "out")
	c := command{
		Name: config.Bindings.Translator,
		Args: []string{"-nostamps", "-out", genDir, manifestPath},
		Dir:  workDir,
	}
	logger.Debug("running binding translator", "command", c.String())
	if output, err := runCommand(ctx, c); err != nil {
		return nil, bindingsError("%v\n\n%s", err, strings.Join(output, "\n"))
	}

	result.PackageDir = filepath.Join(genDir, config.Bindings.Package)
	files, err := readGeneratedFiles(result.PackageDir)
	if err != nil {
		return nil, err
	}

	archive := newSnapshot(config.LibraryVersion(), config.Target, files)
	data := txtar.Format(archive)
	result.Generated = true
	result.Digest = snapshotDigest(files)

	result.ScratchPath = filepath.Join(outDir, scratchArchive)
	if err := os.WriteFile(result.ScratchPath, data, 0o644); err != nil {
		return nil, bindingsError("writing %s: %v", result.ScratchPath, err)
	}

	if err := publish(cache, name, data, result, logger); err != nil {
		return nil, err
	}

	return result, nil
}

// publish copies the snapshot into the cache if it is not there yet, and
// reports drift against an existing one.
func publish(cache billy.Filesystem, name string, data []byte, result *Bindings, logger *slog.Logger) error {
	published, err := publishSnapshot(cache, name, data)
	if err != nil {
		return bindingsError("publishing %s: %v", result.CachePath, err)
	}
	result.Published = published

	if published {
		logger.Info("created bindings snapshot", "path", result.CachePath, "blake3", result.Digest)
		return nil
	}

	existing, err := readSnapshotDigest(cache, name)
	if err != nil {
		return bindingsError("reading %s: %v", result.CachePath, err)
	}
	if existing != result.Digest {
		result.Drifted = true
		logger.Warn("generated bindings differ from existing snapshot, keeping snapshot",
			"path", result.CachePath, "snapshot_blake3", existing, "generated_blake3", result.Digest)
		return nil
	}

	logger.Debug("bindings snapshot up to date", "path", result.CachePath)
	return nil
}

// readGeneratedFiles loads the regular files of dir in name order.
func readGeneratedFiles(dir string) ([]txtar.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, bindingsError("reading generated package: %v", err)
	}

	var files []txtar.File
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, bindingsError("reading %s: %v", entry.Name(), err)
		}
		// txtar terminates every file with a newline; match it so digests
		// of fresh output and of a parsed snapshot agree.
		if len(data) > 0 && data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		files = append(files, txtar.File{Name: entry.Name(), Data: data})
	}

	if len(files) == 0 {
		return nil, bindingsError("translator produced no files in %s", dir)
	}
	return files, nil
}

func bindingsError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBindings, fmt.Sprintf(format, args...))
}
