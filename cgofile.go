package mosquittobuild

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

var cgoFileTemplate = template.Must(template.New("cgo").Parse(`// Code generated by mosquitto-build. DO NOT EDIT.

//go:build {{.GOOS}} && {{.GOARCH}}

package {{.Package}}

// #cgo CFLAGS: -I{{.IncludeDir}}
// #cgo LDFLAGS: -L{{.LibDir}}{{if .RPath}} -Wl,-rpath,{{.LibDir}}{{end}} -l{{.Library}}
import "C"
`))

type cgoFileData struct {
	GOOS       string
	GOARCH     string
	Package    string
	IncludeDir string
	LibDir     string
	Library    string
	RPath      bool
}

// RenderCgoFile returns a Go source file carrying the link directives as
// #cgo flags, constrained to the build target.
func RenderCgoFile(config *Config, artifact *Artifact, directives DirectiveSet) ([]byte, error) {
	data := cgoFileData{
		GOOS:       config.Target.GOOS,
		GOARCH:     config.Target.GOARCH,
		Package:    config.Bindings.Package,
		IncludeDir: artifact.IncludeDir,
		LibDir:     directives.SearchPath,
		Library:    directives.Library,
		RPath:      config.Target.GOOS != platformWindows,
	}

	var buf bytes.Buffer
	if err := cgoFileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering cgo file: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCgoFile renders the cgo file and writes it to path.
func WriteCgoFile(path string, config *Config, artifact *Artifact, directives DirectiveSet) error {
	content, err := RenderCgoFile(config, artifact, directives)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing cgo file: %w", err)
	}
	return nil
}
