//go:build windows

package pvec

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func checkDirPerms(name string) error {
	fi, err := os.Stat(name)
	if err != nil {
		return errors.Wrap(err, "stat")
	}

	if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", name)
	}

	// Attempt to write a file, and remove it before returning.
	testFile := filepath.Join(name, "pvecwrchk")
	f, err := os.Create(testFile)
	if err != nil {
		return errors.Wrap(err, "no write perms?")
	}
	f.Close()
	os.Remove(testFile)
	return nil
}

// syncFile forces previously written bytes on f to stable storage.
// Windows has no fdatasync; FlushFileBuffers via Sync is the closest
// equivalent.
func syncFile(f *os.File) error {
	return f.Sync()
}
