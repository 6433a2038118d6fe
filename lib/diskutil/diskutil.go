package diskutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"
)

// FolderSize returns the total size in bytes of every regular file under
// root. A root that does not exist has size 0.
func FolderSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
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
	if err != nil {
		return 0, err
	}
	return total, nil
}

var units = []string{"B", "KB", "MB", "GB"}

// HumanBytes formats a byte count with one decimal using 1024 based units.
//
// ex. 1536 -> "1.5 KB"
func HumanBytes(n int64) string {
	value := float64(n)
	for _, unit := range units {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f TB", value)
}

type Volume struct {
	Free  uint64
	Total uint64
}

// VolumeOf reports the free and total space of the filesystem holding path.
// path must exist.
func VolumeOf(ctx context.Context, path string) (Volume, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Volume{}, err
	}
	_, err = os.Stat(abs)
	if err != nil {
		return Volume{}, err
	}
	usage, err := disk.UsageWithContext(ctx, abs)
	if err != nil {
		return Volume{}, err
	}
	return Volume{Free: usage.Free, Total: usage.Total}, nil
}
