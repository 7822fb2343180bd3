package mosquittobuild

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/zeebo/blake3"
	"golang.org/x/tools/txtar"
)

// SnapshotName returns the cache filename for bindings of version on target,
// e.g. "bindings_mosquitto_2.0.4-linux-amd64.txtar".
func SnapshotName(version string, target Platform) string {
	return fmt.Sprintf("bindings_%s_%s-%s.txtar", libraryName, version, target.Triple())
}

// newSnapshot bundles generated files into a single txtar archive. The
// comment records what the archive was generated for and its digest.
func newSnapshot(version string, target Platform, files []txtar.File) *txtar.Archive {
	comment := strings.Join([]string{
		fmt.Sprintf("%s bindings", libraryName),
		"version: " + version,
		"target: " + target.Triple(),
		"blake3: " + snapshotDigest(files),
	}, "\n") + "\n"

	return &txtar.Archive{
		Comment: []byte(comment),
		Files:   files,
	}
}

// snapshotDigest hashes file names and contents in order. The archive
// comment is excluded so the digest only reflects generated code.
func snapshotDigest(files []txtar.File) string {
	h := blake3.New()
	for _, f := range files {
		_, _ = h.Write([]byte(f.Name))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(f.Data)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// snapshotExists reports whether name is present in fs.
func snapshotExists(fs billy.Filesystem, name string) (bool, error) {
	_, err := fs.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// readSnapshotDigest returns the digest of the files in an existing snapshot.
func readSnapshotDigest(fs billy.Filesystem, name string) (string, error) {
	data, err := util.ReadFile(fs, name)
	if err != nil {
		return "", err
	}
	return snapshotDigest(txtar.Parse(data).Files), nil
}

// publishSnapshot writes data to name unless a file is already there.
// It never truncates or replaces an existing snapshot and reports whether
// it created the file.
func publishSnapshot(fs billy.Filesystem, name string, data []byte) (bool, error) {
	exists, err := snapshotExists(fs, name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, err
	}

	return true, f.Close()
}
