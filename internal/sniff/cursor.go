package sniff

import "fmt"

// Cursor is an append-only byte buffer with a read position.
//
// Reads never move the position past the written data: a read that needs
// more bytes than are buffered fails with ErrInsufficientBuffer and leaves
// the position untouched, so the caller can write more and try again.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor holding a copy of b.
func NewCursor(b []byte) *Cursor {
	c := &Cursor{}
	c.Write(b)
	return c
}

// Write appends b to the buffer.
func (c *Cursor) Write(b []byte) {
	c.buf = append(c.buf, b...)
}

// Peek returns the next n bytes without advancing.
// The returned slice must not be modified.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d: %w", n, ErrInvalidImage)
	}
	if c.pos+n > len(c.buf) {
		return nil, ErrInsufficientBuffer
	}
	return c.buf[c.pos : c.pos+n : c.pos+n], nil
}

// Read returns the next n bytes and advances past them.
func (c *Cursor) Read(n int) ([]byte, error) {
	b, err := c.Peek(n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}

// Skip advances past n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.Read(n)
	return err
}

// ReadByte reads a single byte.
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Reset rewinds to the start of the buffer. Buffered bytes are kept.
func (c *Cursor) Reset() {
	c.pos = 0
}

// Seek moves to an absolute position within the buffered data.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 {
		return fmt.Errorf("seek to %d: %w", pos, ErrInvalidImage)
	}
	if pos > len(c.buf) {
		return ErrInsufficientBuffer
	}
	c.pos = pos
	return nil
}

// Pos returns the read position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the number of bytes written so far.
func (c *Cursor) Len() int {
	return len(c.buf)
}
