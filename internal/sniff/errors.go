package sniff

import "errors"

var (
	// ErrInsufficientBuffer is returned when a read needs bytes that have
	// not been written yet. Sessions translate it into NeedMore.
	ErrInsufficientBuffer = errors.New("insufficient buffered data")

	// ErrInvalidImage is returned when the header layout contradicts itself.
	ErrInvalidImage = errors.New("invalid image header")

	// ErrUnrecognizedFormat is returned when the magic bytes match no known format.
	ErrUnrecognizedFormat = errors.New("unrecognized image format")

	// ErrTruncated is returned when the source ended before the header was complete.
	ErrTruncated = errors.New("image data ended before header was complete")
)
