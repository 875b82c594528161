package backup_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rusenback/webtopd/internal/backup"
	"github.com/stretchr/testify/require"
)

func writeBackup(t *testing.T, root, name string, created time.Time, files map[string]int) {
	dir := filepath.Join(root, name)
	for rel, size := range files {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, make([]byte, size), 0644))
	}
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.Chtimes(dir, created, created))
}

func TestListSortedAndSized(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	writeBackup(t, root, "x_20260301", base, map[string]int{"home.tar": 1024 * 1024})
	writeBackup(t, root, "x_20260303", base.Add(48*time.Hour), map[string]int{
		"home.tar":        512 * 1024,
		"config/kde.tar":  256 * 1024,
		"config/deep/a.b": 256 * 1024,
	})
	writeBackup(t, root, "x_20260302", base.Add(24*time.Hour), map[string]int{})
	writeBackup(t, root, "xy_20260305", base.Add(96*time.Hour), map[string]int{"f": 1})
	writeBackup(t, root, "y_20260304", base.Add(72*time.Hour), map[string]int{"f": 1})
	require.NoError(t, os.WriteFile(filepath.Join(root, "x_stray.txt"), []byte("file, not dir"), 0644))

	c := &backup.Catalog{Dir: root}
	list, err := c.List("x")
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.Equal(t, "x_20260303", list[0].Name)
	require.Equal(t, "x_20260302", list[1].Name)
	require.Equal(t, "x_20260301", list[2].Name)

	for i := 1; i < len(list); i++ {
		require.True(t, list[i-1].Created.After(list[i].Created))
	}

	require.Equal(t, 1.0, list[0].SizeMB)
	require.Equal(t, 0.0, list[1].SizeMB)
	require.Equal(t, 1.0, list[2].SizeMB)
}

func TestListMissingDir(t *testing.T) {
	c := &backup.Catalog{Dir: filepath.Join(t.TempDir(), "backups")}
	list, err := c.List("x")
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestLatest(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writeBackup(t, root, "x_old", base, map[string]int{"a": 1})
	writeBackup(t, root, "x_new", base.Add(time.Hour), map[string]int{"a": 1})

	c := &backup.Catalog{Dir: root}
	info, dir, err := c.Latest("x")
	require.NoError(t, err)
	require.Equal(t, "x_new", info.Name)
	require.Equal(t, filepath.Join(root, "x_new"), dir)

	_, _, err = c.Latest("nothing")
	require.Error(t, err)
}
