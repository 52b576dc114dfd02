package file

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoBatch is returned when a base directory holds no batch directories.
var ErrNoBatch = errors.New("file: no batch directory found")

// DocumentExt is the extension of match documents inside a batch.
const DocumentExt = ".json"

// LatestDir returns the most recently modified subdirectory of base. Regular
// files are ignored. Ties keep the first entry in directory order.
func LatestDir(base string) (string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrNoBatch, "%s does not exist", base)
		}
		return "", errors.Wrapf(err, "read dir %s", base)
	}

	var (
		latest string
		found  bool
		newest int64
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		mt := info.ModTime().UnixNano()
		if !found || mt > newest {
			latest, newest, found = filepath.Join(base, e.Name()), mt, true
		}
	}
	if !found {
		return "", errors.Wrapf(ErrNoBatch, "no subdirectory in %s", base)
	}
	return latest, nil
}

// ListDocuments returns the match documents directly inside dir, in the
// order os.ReadDir yields them. Subdirectories are not descended into.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read dir %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), DocumentExt) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
