package sniff

import (
	"encoding/binary"
	"fmt"
)

// Size holds pixel dimensions.
type Size struct {
	Width  int
	Height int
}

func (s Size) transposed() Size {
	return Size{Width: s.Height, Height: s.Width}
}

// sizeParser extracts dimensions from a cursor rewound to the start of the
// image. Implementations return ErrInsufficientBuffer to ask for more data.
type sizeParser interface {
	parse(c *Cursor) (Size, error)
}

type parseFunc func(c *Cursor) (Size, error)

func (f parseFunc) parse(c *Cursor) (Size, error) { return f(c) }

// parsers maps each format to a constructor for its size parser. Stateless
// parsers re-read their fixed offsets on every attempt; the JPEG parser
// carries its scan state between attempts.
var parsers = map[Format]func() sizeParser{
	FormatPNG:  stateless(parsePNG),
	FormatGIF:  stateless(parseGIF),
	FormatBMP:  stateless(parseBMP),
	FormatICO:  stateless(parseICO),
	FormatCUR:  stateless(parseICO),
	FormatPSD:  stateless(parsePSD),
	FormatWEBP: stateless(parseWEBP),
	FormatTIFF: stateless(parseTIFF),
	FormatJPEG: func() sizeParser { return &jpegParser{} },
}

func stateless(f parseFunc) func() sizeParser {
	return func() sizeParser { return f }
}

func parsePNG(c *Cursor) (Size, error) {
	b, err := c.Read(25)
	if err != nil {
		return Size{}, err
	}
	return Size{
		Width:  int(binary.BigEndian.Uint32(b[16:20])),
		Height: int(binary.BigEndian.Uint32(b[20:24])),
	}, nil
}

func parseGIF(c *Cursor) (Size, error) {
	b, err := c.Read(11)
	if err != nil {
		return Size{}, err
	}
	return Size{
		Width:  int(binary.LittleEndian.Uint16(b[6:8])),
		Height: int(binary.LittleEndian.Uint16(b[8:10])),
	}, nil
}

// BMP DIB header sizes.
const (
	bmpCoreHeader = 12 // OS/2 1.x
	bmpInfoHeader = 40
	bmpV2Header   = 52
	bmpV3Header   = 56
	bmpOS2Header  = 64 // OS/2 2.x
	bmpV4Header   = 108
	bmpV5Header   = 124
)

func parseBMP(c *Cursor) (Size, error) {
	b, err := c.Read(29)
	if err != nil {
		return Size{}, err
	}

	switch b[14] {
	case bmpInfoHeader, bmpV2Header, bmpV3Header, bmpOS2Header, bmpV4Header, bmpV5Header:
		w := int(int32(binary.LittleEndian.Uint32(b[18:22])))
		h := int(int32(binary.LittleEndian.Uint32(b[22:26])))
		if w < 0 {
			return Size{}, fmt.Errorf("bmp width %d: %w", w, ErrInvalidImage)
		}
		// Negative height marks a top-down bitmap.
		if h < 0 {
			h = -h
		}
		return Size{Width: w, Height: h}, nil
	case bmpCoreHeader:
		return Size{
			Width:  int(binary.LittleEndian.Uint16(b[18:20])),
			Height: int(binary.LittleEndian.Uint16(b[20:22])),
		}, nil
	}
	return Size{}, fmt.Errorf("bmp header size %d: %w", b[14], ErrInvalidImage)
}

// parseICO handles both icons and cursors. The size of the first directory
// entry is reported; a stored 0 means 256.
func parseICO(c *Cursor) (Size, error) {
	if err := c.Skip(6); err != nil {
		return Size{}, err
	}
	b, err := c.Read(2)
	if err != nil {
		return Size{}, err
	}
	dim := func(v byte) int {
		if v == 0 {
			return 256
		}
		return int(v)
	}
	return Size{Width: dim(b[0]), Height: dim(b[1])}, nil
}

func parsePSD(c *Cursor) (Size, error) {
	if err := c.Skip(14); err != nil {
		return Size{}, err
	}
	b, err := c.Read(8)
	if err != nil {
		return Size{}, err
	}
	return Size{
		Width:  int(binary.BigEndian.Uint32(b[4:8])),
		Height: int(binary.BigEndian.Uint32(b[0:4])),
	}, nil
}

func parseTIFF(c *Cursor) (Size, error) {
	info, err := ReadExif(c)
	if err != nil {
		return Size{}, err
	}
	if info.Width == 0 || info.Height == 0 {
		return Size{}, fmt.Errorf("tiff IFD0 without dimensions: %w", ErrInvalidImage)
	}
	size := Size{Width: info.Width, Height: info.Height}
	if info.Rotated() {
		size = size.transposed()
	}
	return size, nil
}

// parseWEBP reads the first chunk after the RIFF header. Extended files
// that put metadata chunks before the size chunk are not supported.
func parseWEBP(c *Cursor) (Size, error) {
	if err := c.Skip(12); err != nil {
		return Size{}, err
	}
	tag, err := c.Read(4)
	if err != nil {
		return Size{}, err
	}
	// Chunk payload size.
	if err := c.Skip(4); err != nil {
		return Size{}, err
	}

	switch string(tag) {
	case "VP8 ":
		// Frame tag and start code.
		if err := c.Skip(6); err != nil {
			return Size{}, err
		}
		b, err := c.Read(4)
		if err != nil {
			return Size{}, err
		}
		return Size{
			Width:  int(binary.LittleEndian.Uint16(b[0:2]) & 0x3fff),
			Height: int(binary.LittleEndian.Uint16(b[2:4]) & 0x3fff),
		}, nil
	case "VP8L":
		// Signature byte 0x2f.
		if err := c.Skip(1); err != nil {
			return Size{}, err
		}
		b, err := c.Read(4)
		if err != nil {
			return Size{}, err
		}
		b1, b2, b3, b4 := int(b[0]), int(b[1]), int(b[2]), int(b[3])
		return Size{
			Width:  1 + (((b2 & 0x3f) << 8) | b1),
			Height: 1 + (((b4 & 0x0f) << 10) | (b3 << 2) | ((b2 & 0xc0) >> 6)),
		}, nil
	case "VP8X":
		// Feature flags and reserved bytes.
		if err := c.Skip(4); err != nil {
			return Size{}, err
		}
		b, err := c.Read(6)
		if err != nil {
			return Size{}, err
		}
		return Size{
			Width:  1 + int(b[0]) + int(b[1])<<8 + int(b[2])<<16,
			Height: 1 + int(b[3]) + int(b[4])<<8 + int(b[5])<<16,
		}, nil
	}
	return Size{}, fmt.Errorf("webp chunk %q: %w", tag, ErrInvalidImage)
}
