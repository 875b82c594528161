// Package backup lists backup directories and runs the secondary cloud step.
package backup

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rusenback/webtopd/internal/model"
	"github.com/rusenback/webtopd/internal/stats"
)

// Catalog reads backups laid out as <Dir>/<container>_<suffix>/...
type Catalog struct {
	Dir string
}

// List returns the backups of container, newest first. A missing backup
// directory is an empty list.
func (c *Catalog) List(container string) ([]model.BackupInfo, error) {
	entries, err := os.ReadDir(c.Dir)
	if os.IsNotExist(err) {
		return []model.BackupInfo{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read backup dir")
	}

	prefix := container + "_"
	backups := []model.BackupInfo{}

	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", e.Name())
		}

		size, err := dirSize(filepath.Join(c.Dir, e.Name()))
		if err != nil {
			return nil, err
		}

		backups = append(backups, model.BackupInfo{
			Name:    e.Name(),
			Created: info.ModTime(),
			SizeMB:  float64(size) / (1024 * 1024),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].Created.After(backups[j].Created)
	})

	return backups, nil
}

// Latest returns the path of the newest backup of container
func (c *Catalog) Latest(container string) (model.BackupInfo, string, error) {
	backups, err := c.List(container)
	if err != nil {
		return model.BackupInfo{}, "", err
	}
	if len(backups) == 0 {
		return model.BackupInfo{}, "", errors.Errorf("no backups for %s", container)
	}

	return backups[0], filepath.Join(c.Dir, backups[0].Name), nil
}

// dirSize sums the sizes of all regular files below root
func dirSize(root string) (int64, error) {
	var total int64

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		total += info.Size()
		return nil
	})

	return total, errors.Wrapf(err, "size of %s", root)
}

// roundedMB is used in upload summaries
func roundedMB(size int64) float64 {
	return stats.MB(uint64(size))
}
