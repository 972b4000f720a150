package sniff

// Format identifies an image container format.
type Format string

const (
	FormatUnknown Format = ""
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatBMP     Format = "bmp"
	FormatJPEG    Format = "jpeg"
	FormatICO     Format = "ico"
	FormatCUR     Format = "cur"
	FormatWEBP    Format = "webp"
	FormatTIFF    Format = "tiff"
	FormatPSD     Format = "psd"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// Sniff identifies the format from the magic bytes at the cursor position.
// It returns ErrInsufficientBuffer when the decision needs more bytes and
// ErrUnrecognizedFormat when nothing matches.
func Sniff(c *Cursor) (Format, error) {
	magic, err := c.Read(2)
	if err != nil {
		return FormatUnknown, err
	}

	switch string(magic) {
	case "BM":
		return FormatBMP, nil
	case "GI":
		return FormatGIF, nil
	case "\xff\xd8":
		return FormatJPEG, nil
	case "\x00\x00":
		kind, err := c.ReadByte()
		if err != nil {
			return FormatUnknown, err
		}
		switch kind {
		case 1:
			return FormatICO, nil
		case 2:
			return FormatCUR, nil
		}
		return FormatUnknown, ErrUnrecognizedFormat
	case "\x89P":
		return FormatPNG, nil
	case "RI":
		riff, err := c.Read(10)
		if err != nil {
			return FormatUnknown, err
		}
		if string(riff[6:10]) == "WEBP" {
			return FormatWEBP, nil
		}
		return FormatUnknown, ErrUnrecognizedFormat
	case "8B":
		return FormatPSD, nil
	case "II", "MM":
		return FormatTIFF, nil
	}
	return FormatUnknown, ErrUnrecognizedFormat
}
