package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// SwapExt replaces the trailing suffix from on path with to. It returns
// path unchanged if it does not end in from.
//
//	SwapExt("m.param.bin", ".param.bin", ".bin") == "m.bin"
func SwapExt(path, from, to string) string {
	if !strings.HasSuffix(path, from) {
		return path
	}
	return strings.TrimSuffix(path, from) + to
}
