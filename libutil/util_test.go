package libutil_test

import (
	"cubemap-prefilter/libutil"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanupRunsInReverse(t *testing.T) {
	var order []int
	c := libutil.Cleanup{}
	for i := 0; i < 3; i++ {
		i := i
		c.AddFunc(func() { order = append(order, i) })
	}
	assert.Equal(t, 3, c.Len())

	c.Run()
	assert.Equal(t, []int{2, 1, 0}, order)

	c.Run()
	assert.Equal(t, []int{2, 1, 0}, order, "second run must not delete again")
	assert.Equal(t, 0, c.Len())
}

func TestLog2(t *testing.T) {
	assert.Equal(t, 0, libutil.Log2(1))
	assert.Equal(t, 4, libutil.Log2(16))
	assert.Equal(t, 4, libutil.Log2(31))
	assert.Equal(t, 6, libutil.Log2(64))
	assert.Equal(t, -1, libutil.Log2(0))
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, v := range []int{1, 2, 4, 16, 1024} {
		assert.True(t, libutil.IsPowerOfTwo(v), v)
	}
	for _, v := range []int{0, -4, 3, 12, 1023} {
		assert.False(t, libutil.IsPowerOfTwo(v), v)
	}
}
