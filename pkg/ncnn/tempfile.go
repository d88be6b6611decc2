package ncnn

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

const (
	suffixParam    = ".param"
	suffixParamBin = ".param.bin"
	suffixModel    = ".model"
)

// tempDir is the shared directory used for buffer-mode loads.
var tempDir = os.TempDir

// maxTempAttempts bounds retries when a random name already exists.
const maxTempAttempts = 4

// writeTempFile writes data to <tempDir>/<random uint64><suffix>. The file is
// created exclusively so an existing file or symlink is never followed.
func writeTempFile(data []byte, suffix string) (string, error) {
	dir := tempDir()
	for i := 0; i < maxTempAttempts; i++ {
		name := filepath.Join(dir, strconv.FormatUint(rand.Uint64(), 10)+suffix)
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", errors.Wrapf(err, "create temp file in %s", dir)
		}
		_, werr := f.Write(data)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			_ = os.Remove(name)
			return "", errors.Wrapf(werr, "write temp file %s", name)
		}
		return name, nil
	}
	return "", errors.Errorf("no unique temp file name in %s after %d attempts", dir, maxTempAttempts)
}
