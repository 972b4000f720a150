package sniff

import (
	"encoding/binary"
	"fmt"
)

type jpegState int

const (
	jpegStart jpegState = iota
	jpegScanning
	jpegMarker
	jpegApp1Length
	jpegApp1Body
	jpegSkipLength
	jpegSkipBody
	jpegReadSize
)

var exifHeader = []byte("Exif\x00\x00")

// jpegScanner is the segment walker state. Every step performs exactly one
// cursor read, so a step that fails for lack of data leaves both the
// scanner and the cursor where they were.
type jpegScanner struct {
	state       jpegState
	skip        int
	orientation int
}

func isSOF(b byte) bool {
	switch {
	case b >= 0xc0 && b <= 0xc3,
		b >= 0xc5 && b <= 0xc7,
		b >= 0xc9 && b <= 0xcb,
		b >= 0xcd && b <= 0xcf:
		return true
	}
	return false
}

// isStandalone reports markers that carry no length field.
func isStandalone(b byte) bool {
	return b == 0x01 || (b >= 0xd0 && b <= 0xd8)
}

func (s jpegScanner) step(c *Cursor) (next jpegScanner, size Size, done bool, err error) {
	switch s.state {
	case jpegStart:
		// SOI
		if err := c.Skip(2); err != nil {
			return s, Size{}, false, err
		}
		s.state = jpegScanning

	case jpegScanning:
		b, err := c.ReadByte()
		if err != nil {
			return s, Size{}, false, err
		}
		if b == 0xff {
			s.state = jpegMarker
		}

	case jpegMarker:
		b, err := c.ReadByte()
		if err != nil {
			return s, Size{}, false, err
		}
		switch {
		case b == 0xe1:
			s.state = jpegApp1Length
		case isSOF(b):
			s.state = jpegReadSize
		case b == 0xff:
			// fill byte
		case b == 0xd9 || b == 0xda:
			return s, Size{}, false, fmt.Errorf("jpeg marker 0x%02x before start of frame: %w", b, ErrInvalidImage)
		case isStandalone(b):
			s.state = jpegScanning
		default:
			s.state = jpegSkipLength
		}

	case jpegApp1Length, jpegSkipLength:
		b, err := c.Read(2)
		if err != nil {
			return s, Size{}, false, err
		}
		n := int(binary.BigEndian.Uint16(b)) - 2
		if n < 0 {
			return s, Size{}, false, fmt.Errorf("jpeg segment length %d: %w", n+2, ErrInvalidImage)
		}
		s.skip = n
		if s.state == jpegApp1Length {
			s.state = jpegApp1Body
		} else {
			s.state = jpegSkipBody
		}

	case jpegApp1Body:
		b, err := c.Read(s.skip)
		if err != nil {
			return s, Size{}, false, err
		}
		if len(b) > len(exifHeader) && string(b[:len(exifHeader)]) == string(exifHeader) {
			// A broken EXIF block does not make the image unreadable.
			if info, err := ReadExif(NewCursor(b[len(exifHeader):])); err == nil {
				s.orientation = info.Orientation
			}
		}
		s.skip = 0
		s.state = jpegScanning

	case jpegSkipBody:
		if err := c.Skip(s.skip); err != nil {
			return s, Size{}, false, err
		}
		s.skip = 0
		s.state = jpegScanning

	case jpegReadSize:
		b, err := c.Read(7)
		if err != nil {
			return s, Size{}, false, err
		}
		// SOF stores height before width.
		size := Size{
			Width:  int(binary.BigEndian.Uint16(b[5:7])),
			Height: int(binary.BigEndian.Uint16(b[3:5])),
		}
		if (ExifInfo{Orientation: s.orientation}).Rotated() {
			size = size.transposed()
		}
		return s, size, true, nil
	}

	return s, Size{}, false, nil
}

// jpegParser resumes the segment walk from the last committed step instead
// of rescanning from SOI on every call.
type jpegParser struct {
	scanner jpegScanner
	resume  int
}

func (p *jpegParser) parse(c *Cursor) (Size, error) {
	if err := c.Seek(p.resume); err != nil {
		return Size{}, err
	}
	for {
		next, size, done, err := p.scanner.step(c)
		if err != nil {
			return Size{}, err
		}
		p.scanner = next
		p.resume = c.Pos()
		if done {
			return size, nil
		}
	}
}

// finish is called when the source ran out before a frame header was found.
func (p *jpegParser) finish() error {
	switch p.scanner.state {
	case jpegStart, jpegReadSize:
		return ErrTruncated
	}
	return fmt.Errorf("no start-of-frame marker: %w", ErrInvalidImage)
}
