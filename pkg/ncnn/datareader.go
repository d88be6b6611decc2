package ncnn

import (
	"io"

	"github.com/pkg/errors"
)

// trackingReader remembers the first non-EOF error returned by the wrapped
// reader so a failed streaming load can report why. A panic in the wrapped
// reader is recorded as an error; it must not unwind through libncnn.
type trackingReader struct {
	r   io.Reader
	n   int64
	err error
}

func (t *trackingReader) Read(p []byte) (n int, err error) {
	defer func() {
		if v := recover(); v != nil {
			n, err = 0, errors.Errorf("reader panicked: %v", v)
			if t.err == nil {
				t.err = err
			}
		}
	}()
	n, err = t.r.Read(p)
	t.n += int64(n)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

// fillChunk implements the native read callback: it fills buf completely
// unless the stream ends or fails, and returns the byte count. ncnn treats
// any count short of len(buf) as end of data.
func fillChunk(r io.Reader, buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		logger.Debug().Err(err).Int("want", len(buf)).Int("got", n).Msg("ncnn datareader short read")
	}
	return n
}
