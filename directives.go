package mosquittobuild

import (
	"fmt"
	"io"
)

// DirectivePrefix starts every line the enclosing build should act on.
// Everything else on stdout may be ignored.
const DirectivePrefix = "cgo:"

// DirectiveSet tells the enclosing build where the library is and what to
// link against.
type DirectiveSet struct {
	SearchPath string // Directory holding the shared library
	Library    string // Name passed to the linker
}

// NewDirectiveSet returns the directives for a located artifact.
func NewDirectiveSet(artifact *Artifact) DirectiveSet {
	return DirectiveSet{
		SearchPath: artifact.LibDir,
		Library:    libraryName,
	}
}

// Lines renders the directives:
//
//	cgo:link-search=native=<dir>
//	cgo:link-lib=mosquitto
func (d DirectiveSet) Lines() []string {
	return []string{
		fmt.Sprintf("%slink-search=native=%s", DirectivePrefix, d.SearchPath),
		fmt.Sprintf("%slink-lib=%s", DirectivePrefix, d.Library),
	}
}

// Emit writes the directives to w, one per line.
func (d DirectiveSet) Emit(w io.Writer) error {
	for _, line := range d.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
