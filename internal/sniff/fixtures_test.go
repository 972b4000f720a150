package sniff

import (
	"bytes"
	"encoding/binary"
)

func pngFixture(width, height uint32) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	binary.Write(&b, binary.BigEndian, uint32(13))
	b.WriteString("IHDR")
	binary.Write(&b, binary.BigEndian, width)
	binary.Write(&b, binary.BigEndian, height)
	b.Write([]byte{8, 2, 0, 0, 0})
	// CRC, then the start of an IDAT chunk.
	b.Write([]byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0})
	return b.Bytes()
}

func gifFixture(width, height uint16) []byte {
	var b bytes.Buffer
	b.WriteString("GIF89a")
	binary.Write(&b, binary.LittleEndian, width)
	binary.Write(&b, binary.LittleEndian, height)
	b.Write([]byte{0xf7, 0, 0})
	return b.Bytes()
}

func bmpFixture(headerSize uint32, width, height int32) []byte {
	var b bytes.Buffer
	b.WriteString("BM")
	binary.Write(&b, binary.LittleEndian, uint32(1024))
	binary.Write(&b, binary.LittleEndian, uint32(0))
	binary.Write(&b, binary.LittleEndian, uint32(14+headerSize))
	binary.Write(&b, binary.LittleEndian, headerSize)
	if headerSize == bmpCoreHeader {
		binary.Write(&b, binary.LittleEndian, uint16(width))
		binary.Write(&b, binary.LittleEndian, uint16(height))
	} else {
		binary.Write(&b, binary.LittleEndian, width)
		binary.Write(&b, binary.LittleEndian, height)
	}
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(24))
	b.Write(make([]byte, 8))
	return b.Bytes()
}

func icoFixture(kind uint16, width, height byte) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint16(0))
	binary.Write(&b, binary.LittleEndian, kind)
	binary.Write(&b, binary.LittleEndian, uint16(1))
	b.Write([]byte{width, height, 0, 0})
	b.Write(make([]byte, 12))
	return b.Bytes()
}

func psdFixture(width, height uint32) []byte {
	var b bytes.Buffer
	b.WriteString("8BPS")
	binary.Write(&b, binary.BigEndian, uint16(1))
	b.Write(make([]byte, 6))
	binary.Write(&b, binary.BigEndian, uint16(3))
	binary.Write(&b, binary.BigEndian, height)
	binary.Write(&b, binary.BigEndian, width)
	binary.Write(&b, binary.BigEndian, uint16(8))
	binary.Write(&b, binary.BigEndian, uint16(3))
	return b.Bytes()
}

func riff(chunk string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(4+8+len(payload)))
	b.WriteString("WEBP")
	b.WriteString(chunk)
	binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
	return b.Bytes()
}

func webpVP8Fixture(width, height uint16) []byte {
	var p bytes.Buffer
	p.Write([]byte{0x50, 0x2a, 0x00, 0x9d, 0x01, 0x2a})
	binary.Write(&p, binary.LittleEndian, width)
	binary.Write(&p, binary.LittleEndian, height)
	p.Write(make([]byte, 8))
	return riff("VP8 ", p.Bytes())
}

func webpVP8LFixture(width, height uint32) []byte {
	v := (width - 1) | (height-1)<<14
	p := []byte{0x2f, byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24), 0, 0}
	return riff("VP8L", p)
}

func webpVP8XFixture(width, height uint32) []byte {
	w, h := width-1, height-1
	p := []byte{
		0x10, 0, 0, 0,
		byte(w), byte(w >> 8), byte(w >> 16),
		byte(h), byte(h >> 8), byte(h >> 16),
	}
	return riff("VP8X", p)
}

// tiffBlock builds a TIFF header and IFD0. Entries with a zero value are
// left out. long encodes width and height as LONG values.
func tiffBlock(order binary.ByteOrder, width, height, orientation uint32, long bool) []byte {
	type entry struct {
		tag, typ uint16
		value    uint32
	}
	dimType := uint16(3)
	if long {
		dimType = exifTypeLong
	}
	var entries []entry
	// An unrelated tag first, the walk must step over it.
	entries = append(entries, entry{0x00fe, 4, 0})
	if width != 0 {
		entries = append(entries, entry{tagImageWidth, dimType, width})
	}
	if height != 0 {
		entries = append(entries, entry{tagImageHeight, dimType, height})
	}
	if orientation != 0 {
		entries = append(entries, entry{tagOrientation, 3, orientation})
	}

	var b bytes.Buffer
	if order == binary.LittleEndian {
		b.WriteString("II")
	} else {
		b.WriteString("MM")
	}
	binary.Write(&b, order, uint16(42))
	binary.Write(&b, order, uint32(8))
	binary.Write(&b, order, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&b, order, e.tag)
		binary.Write(&b, order, e.typ)
		binary.Write(&b, order, uint32(1))
		if e.typ == exifTypeLong {
			binary.Write(&b, order, e.value)
		} else {
			binary.Write(&b, order, uint16(e.value))
			binary.Write(&b, order, uint16(0))
		}
	}
	binary.Write(&b, order, uint32(0))
	return b.Bytes()
}

func jpegSegment(marker byte, payload []byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xff, marker})
	binary.Write(&b, binary.BigEndian, uint16(len(payload)+2))
	b.Write(payload)
	return b.Bytes()
}

// jpegFixture builds SOI, APP0, an optional EXIF APP1 carrying the
// orientation, DQT, SOF0 and the start of a scan.
func jpegFixture(width, height uint16, orientation uint32) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xff, 0xd8})
	b.Write(jpegSegment(0xe0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")))
	if orientation != 0 {
		exif := append([]byte("Exif\x00\x00"), tiffBlock(binary.BigEndian, 0, 0, orientation, false)...)
		b.Write(jpegSegment(0xe1, exif))
	}
	b.Write(jpegSegment(0xdb, make([]byte, 65)))

	var sof bytes.Buffer
	sof.WriteByte(8)
	binary.Write(&sof, binary.BigEndian, height)
	binary.Write(&sof, binary.BigEndian, width)
	sof.Write([]byte{3, 1, 0x22, 0, 2, 0x11, 1, 3, 0x11, 1})
	b.Write(jpegSegment(0xc0, sof.Bytes()))

	b.Write(jpegSegment(0xda, []byte{3, 1, 0, 2, 0x11, 3, 0x11, 0, 0x3f, 0}))
	b.Write(bytes.Repeat([]byte{0x55}, 32))
	return b.Bytes()
}

type fixture struct {
	name   string
	data   []byte
	format Format
	size   Size
}

func allFixtures() []fixture {
	return []fixture{
		{"png", pngFixture(800, 600), FormatPNG, Size{800, 600}},
		{"gif", gifFixture(320, 240), FormatGIF, Size{320, 240}},
		{"bmp info header", bmpFixture(40, 640, 480), FormatBMP, Size{640, 480}},
		{"bmp top-down", bmpFixture(40, 640, -480), FormatBMP, Size{640, 480}},
		{"bmp v5 header", bmpFixture(124, 100, 50), FormatBMP, Size{100, 50}},
		{"bmp os2 core header", bmpFixture(12, 64, 32), FormatBMP, Size{64, 32}},
		{"ico", icoFixture(1, 48, 32), FormatICO, Size{48, 32}},
		{"ico 256", icoFixture(1, 0, 0), FormatICO, Size{256, 256}},
		{"cur", icoFixture(2, 32, 32), FormatCUR, Size{32, 32}},
		{"psd", psdFixture(1920, 1080), FormatPSD, Size{1920, 1080}},
		{"webp vp8", webpVP8Fixture(550, 368), FormatWEBP, Size{550, 368}},
		{"webp vp8l", webpVP8LFixture(386, 395), FormatWEBP, Size{386, 395}},
		{"webp vp8x", webpVP8XFixture(1024, 772), FormatWEBP, Size{1024, 772}},
		{"tiff little endian", tiffBlock(binary.LittleEndian, 300, 200, 1, false), FormatTIFF, Size{300, 200}},
		{"tiff big endian rotated", tiffBlock(binary.BigEndian, 300, 200, 6, false), FormatTIFF, Size{200, 300}},
		{"tiff long dimensions", tiffBlock(binary.BigEndian, 70000, 200, 0, true), FormatTIFF, Size{70000, 200}},
		{"jpeg", jpegFixture(1024, 768, 0), FormatJPEG, Size{1024, 768}},
		{"jpeg orientation 6", jpegFixture(1024, 768, 6), FormatJPEG, Size{768, 1024}},
	}
}
