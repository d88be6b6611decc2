package ncnn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatFromShape(t *testing.T) {
	m, err := MatFromShape([]int{2, 3, 4}, make([]float32, 24))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Dims())
	assert.Equal(t, 4, m.W)
	assert.Equal(t, 3, m.H)
	assert.Equal(t, 2, m.C)
	assert.Equal(t, []int{2, 3, 4}, m.Shape())
	assert.Len(t, m.Channel(1), 12)

	m4, err := MatFromShape([]int{2, 5, 3, 4}, make([]float32, 120))
	require.NoError(t, err)
	assert.Equal(t, 4, m4.Dims())
	assert.Equal(t, []int{2, 5, 3, 4}, m4.Shape())
}

func TestMatFromShapeErrors(t *testing.T) {
	_, err := MatFromShape(nil, nil)
	assert.Error(t, err)
	_, err = MatFromShape([]int{1, 2, 3, 4, 5}, make([]float32, 120))
	assert.Error(t, err)
	_, err = MatFromShape([]int{2, 0}, nil)
	assert.Error(t, err)
	_, err = MatFromShape([]int{2, 2}, make([]float32, 3))
	assert.Error(t, err)
}

func TestShapeLenRejectsOverflow(t *testing.T) {
	n, err := ShapeLen([]int{3, 227, 227})
	require.NoError(t, err)
	assert.Equal(t, 3*227*227, n)

	tooWide := maxDim
	tooWide++
	var shift uint = 32
	wraps := 1 << shift // product of two wraps to zero in a 64-bit int
	for _, shape := range [][]int{
		{tooWide},
		{wraps, wraps, 1},
		{math.MaxInt32, math.MaxInt32, math.MaxInt32},
		{math.MaxInt32, math.MaxInt32, math.MaxInt32, math.MaxInt32},
	} {
		_, err := ShapeLen(shape)
		assert.Error(t, err, "shape %v", shape)
		_, err = MatFromShape(shape, nil)
		assert.Error(t, err, "shape %v", shape)
	}
}

func TestMatValidateRejectsOverflow(t *testing.T) {
	var shift uint = 32
	wraps := &Mat{W: 1 << shift, H: 1 << shift, D: 1, C: 1}
	assert.Error(t, wraps.validate(), "empty data must not match a wrapped size")
	huge := &Mat{W: math.MaxInt32, H: math.MaxInt32, D: math.MaxInt32, C: math.MaxInt32}
	assert.Error(t, huge.validate())
	assert.Error(t, (&Mat{W: 0, H: 1, D: 1, C: 1}).validate())
	assert.Error(t, (*Mat)(nil).validate())
	assert.NoError(t, NewMat3D(2, 2, 2, nil).validate())
}

func TestMatDimsInferred(t *testing.T) {
	assert.Equal(t, 1, (&Mat{W: 4, H: 1, D: 1, C: 1}).Dims())
	assert.Equal(t, 2, (&Mat{W: 4, H: 2, D: 1, C: 1}).Dims())
	assert.Equal(t, 3, (&Mat{W: 4, H: 2, D: 1, C: 3}).Dims())
	assert.Equal(t, 4, (&Mat{W: 4, H: 2, D: 2, C: 3}).Dims())
	assert.Equal(t, 2, NewMat2D(1, 1, nil).Dims())
	assert.Len(t, NewMat4D(2, 2, 2, 2, nil).Data, 16)
}
