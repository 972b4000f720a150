package sniff

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	tagImageWidth  = 0x0100
	tagImageHeight = 0x0101
	tagOrientation = 0x0112

	exifTypeLong = 4

	ifdEntrySize = 12
	tiffHeadSize = 8
)

// ExifInfo holds the IFD0 tags the sniffer cares about.
// Zero means the tag was not present.
type ExifInfo struct {
	Width       int
	Height      int
	Orientation int
}

// Rotated reports whether the orientation tag describes a 90 or 270 degree
// rotation, in which case the stored width and height are transposed.
func (e ExifInfo) Rotated() bool {
	return e.Orientation >= 5 && e.Orientation <= 8
}

// ReadExif walks IFD0 of the TIFF structure starting at the cursor position.
// The IFD0 offset is measured from the byte-order marker.
func ReadExif(c *Cursor) (ExifInfo, error) {
	var info ExifInfo

	marker, err := c.Read(2)
	if err != nil {
		return info, err
	}
	var order binary.ByteOrder
	switch string(marker) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return info, fmt.Errorf("byte order %q: %w", marker, ErrInvalidImage)
	}

	// TIFF version, always 42.
	if err := c.Skip(2); err != nil {
		return info, err
	}

	b, err := c.Read(4)
	if err != nil {
		return info, err
	}
	offset := order.Uint32(b)
	if offset < tiffHeadSize || offset > math.MaxInt32 {
		return info, fmt.Errorf("IFD0 offset %d: %w", offset, ErrInvalidImage)
	}
	if err := c.Skip(int(offset) - tiffHeadSize); err != nil {
		return info, err
	}

	b, err = c.Read(2)
	if err != nil {
		return info, err
	}
	count := int(order.Uint16(b))

	const (
		seenWidth = 1 << iota
		seenHeight
		seenOrientation
		seenAll = seenWidth | seenHeight | seenOrientation
	)
	seen := 0
	for i := 0; i < count && seen != seenAll; i++ {
		entry, err := c.Read(ifdEntrySize)
		if err != nil {
			return info, err
		}

		var value int
		if order.Uint16(entry[2:4]) == exifTypeLong {
			value = int(order.Uint32(entry[8:12]))
		} else {
			value = int(order.Uint16(entry[8:10]))
		}

		switch order.Uint16(entry[0:2]) {
		case tagImageWidth:
			info.Width = value
			seen |= seenWidth
		case tagImageHeight:
			info.Height = value
			seen |= seenHeight
		case tagOrientation:
			info.Orientation = value
			seen |= seenOrientation
		}
	}

	return info, nil
}
