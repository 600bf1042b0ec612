package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_PushAndToSlice(t *testing.T) {
	rb := NewRingBuffer[int](3)

	assert.Equal(t, 0, rb.Len())
	assert.Equal(t, 3, rb.Cap())

	rb.Push(1)
	rb.Push(2)
	assert.Equal(t, []int{1, 2}, rb.ToSlice())

	rb.Push(3)
	rb.Push(4) // evicts 1
	assert.Equal(t, []int{2, 3, 4}, rb.ToSlice(), "oldest element should be evicted")
	assert.Equal(t, 3, rb.Len())
}

func TestRingBuffer_At(t *testing.T) {
	rb := NewRingBuffer[string](2)
	rb.Push("a")
	rb.Push("b")
	rb.Push("c") // evicts "a"

	assert.Equal(t, "b", rb.At(0), "index 0 is the oldest element")
	assert.Equal(t, "c", rb.At(1))
	assert.Panics(t, func() { rb.At(2) })
	assert.Panics(t, func() { rb.At(-1) })
}

func TestRingBuffer_Empty(t *testing.T) {
	rb := NewRingBuffer[int](4)
	assert.Empty(t, rb.ToSlice())
}

func TestNewRingBuffer_InvalidSize(t *testing.T) {
	assert.Panics(t, func() { NewRingBuffer[int](0) })
}
