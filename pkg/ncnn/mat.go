package ncnn

import (
	"math"

	"github.com/pkg/errors"
)

// Mat is a Go-owned fp32 tensor in ncnn layout: W is the innermost
// dimension, C the outermost. Native ncnn_mat_t handles only exist for the
// duration of a single Input or Extract call; data is copied across.
type Mat struct {
	W, H, D, C int
	Data       []float32

	dims int
}

// NewMat1D wraps data as a 1-D mat of width w. data is used as-is; a nil
// data allocates zeros.
func NewMat1D(w int, data []float32) *Mat { return newMat(1, w, 1, 1, 1, data) }

// NewMat2D wraps data as an h-by-w mat.
func NewMat2D(w, h int, data []float32) *Mat { return newMat(2, w, h, 1, 1, data) }

// NewMat3D wraps data as c channels of h-by-w.
func NewMat3D(w, h, c int, data []float32) *Mat { return newMat(3, w, h, 1, c, data) }

// NewMat4D wraps data as c channels of d-by-h-by-w.
func NewMat4D(w, h, d, c int, data []float32) *Mat { return newMat(4, w, h, d, c, data) }

func newMat(dims, w, h, d, c int, data []float32) *Mat {
	m := &Mat{W: w, H: h, D: d, C: c, dims: dims, Data: data}
	if m.Data == nil {
		m.Data = make([]float32, m.Len())
	}
	return m
}

// maxDim is the largest extent libncnn accepts; sizes cross the boundary
// as C int.
const maxDim = math.MaxInt32

// ShapeLen returns the element count of an outermost-first shape. It fails
// on an empty or over-long shape, a non-positive or oversized extent, or a
// product that does not fit in int.
func ShapeLen(shape []int) (int, error) {
	if len(shape) < 1 || len(shape) > 4 {
		return 0, errors.Errorf("ncnn: shape must have 1 to 4 dimensions, got %d", len(shape))
	}
	n := 1
	for _, s := range shape {
		if s <= 0 || s > maxDim {
			return 0, errors.Errorf("ncnn: invalid shape %v", shape)
		}
		if n > math.MaxInt/s {
			return 0, errors.Errorf("ncnn: shape %v is too large", shape)
		}
		n *= s
	}
	return n, nil
}

// MatFromShape builds a mat from an outermost-first shape: [w], [h w],
// [c h w] or [c d h w]. len(data) must equal the product of shape.
func MatFromShape(shape []int, data []float32) (*Mat, error) {
	n, err := ShapeLen(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, errors.Errorf("ncnn: shape %v needs %d values, got %d", shape, n, len(data))
	}
	var m *Mat
	switch len(shape) {
	case 1:
		m = &Mat{W: shape[0], H: 1, D: 1, C: 1, dims: 1}
	case 2:
		m = &Mat{W: shape[1], H: shape[0], D: 1, C: 1, dims: 2}
	case 3:
		m = &Mat{W: shape[2], H: shape[1], D: 1, C: shape[0], dims: 3}
	default:
		m = &Mat{W: shape[3], H: shape[2], D: shape[1], C: shape[0], dims: 4}
	}
	m.Data = data
	return m, nil
}

// Dims returns the rank (1 to 4). For a Mat built as a literal the rank is
// inferred from the largest dimension greater than one.
func (m *Mat) Dims() int {
	if m.dims != 0 {
		return m.dims
	}
	switch {
	case m.D > 1:
		return 4
	case m.C > 1:
		return 3
	case m.H > 1:
		return 2
	default:
		return 1
	}
}

// Len is the number of elements.
func (m *Mat) Len() int { return m.W * m.H * m.D * m.C }

// ChannelLen is the number of elements in one channel.
func (m *Mat) ChannelLen() int { return m.W * m.H * m.D }

// Shape returns the outermost-first shape matching MatFromShape.
func (m *Mat) Shape() []int {
	switch m.Dims() {
	case 1:
		return []int{m.W}
	case 2:
		return []int{m.H, m.W}
	case 4:
		return []int{m.C, m.D, m.H, m.W}
	default:
		return []int{m.C, m.H, m.W}
	}
}

// Channel returns the slice of Data holding channel q.
func (m *Mat) Channel(q int) []float32 {
	n := m.ChannelLen()
	return m.Data[q*n : (q+1)*n]
}

func (m *Mat) validate() error {
	if m == nil {
		return errors.New("ncnn: nil mat")
	}
	n, err := ShapeLen([]int{m.C, m.D, m.H, m.W})
	if err != nil {
		return errors.Errorf("ncnn: invalid mat size w=%d h=%d d=%d c=%d", m.W, m.H, m.D, m.C)
	}
	if len(m.Data) != n {
		return errors.Errorf("ncnn: mat holds %d values, size needs %d", len(m.Data), n)
	}
	return nil
}
