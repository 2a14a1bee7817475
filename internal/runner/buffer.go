package runner

import "sync"

// TailBuffer is a fixed-size io.Writer that keeps the most recent bytes
// written to it. A program that prints in a loop cannot grow it past its
// capacity.
type TailBuffer struct {
	mu        sync.Mutex
	buf       []byte
	head      int
	full      bool
	truncated bool
}

// NewTailBuffer returns a buffer holding at most size bytes (64KB if size <= 0).
func NewTailBuffer(size int) *TailBuffer {
	if size <= 0 {
		size = 64 * 1024
	}
	return &TailBuffer{buf: make([]byte, size)}
}

// Write implements io.Writer. It never fails; the oldest bytes are
// overwritten once the buffer is full.
func (b *TailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	size := len(b.buf)
	if n >= size {
		if n > size || b.full || b.head > 0 {
			b.truncated = true
		}
		copy(b.buf, p[n-size:])
		b.head = 0
		b.full = true
		return n, nil
	}
	for _, c := range p {
		if b.full {
			b.truncated = true
		}
		b.buf[b.head] = c
		b.head = (b.head + 1) % size
		if b.head == 0 {
			b.full = true
		}
	}
	return n, nil
}

// String returns the retained bytes in write order.
func (b *TailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		return string(b.buf[:b.head])
	}
	return string(b.buf[b.head:]) + string(b.buf[:b.head])
}

// Len returns the number of retained bytes.
func (b *TailBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.full {
		return len(b.buf)
	}
	return b.head
}

// Truncated reports whether older output was discarded.
func (b *TailBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
