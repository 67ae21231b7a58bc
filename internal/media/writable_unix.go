//go:build unix

package media

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func writable(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return unix.Access(dir, unix.W_OK)
}
