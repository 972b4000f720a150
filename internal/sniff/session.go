package sniff

import "errors"

// OutcomeKind tells a caller what to do after feeding a session.
type OutcomeKind int

const (
	// NeedMore means the header is incomplete; feed more bytes.
	NeedMore OutcomeKind = iota
	// Resolved means format and size are known.
	Resolved
	// Invalid means the data can never resolve.
	Invalid
)

func (k OutcomeKind) String() string {
	switch k {
	case NeedMore:
		return "need_more"
	case Resolved:
		return "resolved"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Outcome is the state of a session after a Feed or Finish call.
type Outcome struct {
	Kind   OutcomeKind
	Format Format
	Size   Size
	// Err explains an Invalid outcome.
	Err error
}

// Terminal reports whether the session is done.
func (o Outcome) Terminal() bool {
	return o.Kind != NeedMore
}

// Session sniffs one image from bytes that arrive in arbitrary pieces.
// A Session is not safe for concurrent use.
type Session struct {
	cursor  Cursor
	format  Format
	parser  sizeParser
	outcome Outcome
	bytes   int64
	rounds  int
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Feed appends chunk and tries to resolve the image. Once the outcome is
// terminal, further calls return it unchanged and ignore chunk.
func (s *Session) Feed(chunk []byte) Outcome {
	if s.outcome.Terminal() {
		return s.outcome
	}
	if len(chunk) > 0 {
		s.cursor.Write(chunk)
		s.bytes += int64(len(chunk))
		s.rounds++
	}

	if s.format == FormatUnknown {
		s.cursor.Reset()
		format, err := Sniff(&s.cursor)
		if err != nil {
			return s.settle(err)
		}
		s.format = format
		s.parser = parsers[format]()
	}

	s.cursor.Reset()
	size, err := s.parser.parse(&s.cursor)
	if err != nil {
		return s.settle(err)
	}
	s.outcome = Outcome{Kind: Resolved, Format: s.format, Size: size}
	return s.outcome
}

// Finish marks the source as exhausted. A session that still needs data
// becomes Invalid.
func (s *Session) Finish() Outcome {
	if s.outcome.Terminal() {
		return s.outcome
	}
	err := ErrTruncated
	if f, ok := s.parser.(interface{ finish() error }); ok {
		err = f.finish()
	}
	s.outcome = Outcome{Kind: Invalid, Format: s.format, Err: err}
	return s.outcome
}

func (s *Session) settle(err error) Outcome {
	if errors.Is(err, ErrInsufficientBuffer) {
		return Outcome{Kind: NeedMore, Format: s.format}
	}
	s.outcome = Outcome{Kind: Invalid, Format: s.format, Err: err}
	return s.outcome
}

// Outcome returns the last terminal outcome, or NeedMore.
func (s *Session) Outcome() Outcome {
	if s.outcome.Terminal() {
		return s.outcome
	}
	return Outcome{Kind: NeedMore, Format: s.format}
}

// Format returns the sniffed format, or FormatUnknown.
func (s *Session) Format() Format {
	return s.format
}

// Bytes returns the number of bytes fed so far.
func (s *Session) Bytes() int64 {
	return s.bytes
}

// Rounds returns the number of non-empty chunks fed so far.
func (s *Session) Rounds() int {
	return s.rounds
}
