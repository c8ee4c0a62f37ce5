package libutil

import "math/bits"

const InvalidAddress uintptr = 0xffff_ffff_ffff_ffff

type Deleter interface {
	Delete()
}

// DeleterFunc adapts a plain function to the Deleter interface.
type DeleterFunc func()

func (fn DeleterFunc) Delete() {
	fn()
}

// Cleanup collects deleters and runs them in reverse order of registration.
// The zero value is ready to use.
type Cleanup struct {
	deleters []Deleter
}

func (c *Cleanup) Add(d Deleter) {
	c.deleters = append(c.deleters, d)
}

func (c *Cleanup) AddFunc(fn func()) {
	c.Add(DeleterFunc(fn))
}

func (c *Cleanup) Len() int {
	return len(c.deleters)
}

// Run deletes everything registered so far. Calling it again is a no-op.
func (c *Cleanup) Run() {
	for i := len(c.deleters) - 1; i >= 0; i-- {
		c.deleters[i].Delete()
	}
	c.deleters = nil
}

func IsPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// Log2 returns floor(log2(v)) for v > 0 and -1 otherwise.
func Log2(v int) int {
	if v <= 0 {
		return -1
	}
	return bits.Len(uint(v)) - 1
}
