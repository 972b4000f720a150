package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result types that are not image formats.
const (
	TypeFailed  = "failed"
	TypeInvalid = "invalid"
)

// Dimensions is encoded as a [width, height] JSON array.
type Dimensions struct {
	Width  int
	Height int
}

// MarshalJSON implements json.Marshaler.
func (d Dimensions) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{d.Width, d.Height})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Dimensions) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode dimensions: %w", err)
	}
	d.Width, d.Height = pair[0], pair[1]
	return nil
}

// FetchResult is the outcome of probing one URL.
type FetchResult struct {
	// Type is an image format name, TypeFailed or TypeInvalid.
	Type          string      `json:"type"`
	Size          *Dimensions `json:"size"`
	Bytes         int64       `json:"bytes"`
	Rounds        int         `json:"rounds"`
	ContentLength *string     `json:"content-length"`
	FailureReason *string     `json:"failure_reason"`

	// Err is the error behind a failed or invalid result. It is not encoded.
	Err error `json:"-"`
}

// NewFailedResult returns a failed result with the given reason.
func NewFailedResult(reason string) *FetchResult {
	return &FetchResult{
		Type:          TypeFailed,
		FailureReason: &reason,
	}
}

// Resolved reports whether the result carries a format and size.
func (r *FetchResult) Resolved() bool {
	return r.Size != nil && r.Type != TypeFailed && r.Type != TypeInvalid
}

// Reason returns the failure reason, or "".
func (r *FetchResult) Reason() string {
	if r.FailureReason == nil {
		return ""
	}
	return *r.FailureReason
}

// BatchResult maps each requested URL to its result and remembers the
// order the URLs were requested in.
type BatchResult struct {
	URLs    []string
	Results map[string]*FetchResult
}

// NewBatchResult returns an empty result for urls. Duplicates keep their
// first position.
func NewBatchResult(urls []string) *BatchResult {
	b := &BatchResult{
		URLs:    make([]string, 0, len(urls)),
		Results: make(map[string]*FetchResult, len(urls)),
	}
	for _, u := range urls {
		if _, ok := b.Results[u]; ok {
			continue
		}
		b.Results[u] = nil
		b.URLs = append(b.URLs, u)
	}
	return b
}

// Set stores the result for url, adding url at the end if it is new.
func (b *BatchResult) Set(url string, r *FetchResult) {
	if _, ok := b.Results[url]; !ok {
		b.URLs = append(b.URLs, url)
	}
	b.Results[url] = r
}

// Get returns the result for url.
func (b *BatchResult) Get(url string) (*FetchResult, bool) {
	r, ok := b.Results[url]
	return r, ok && r != nil
}

// Len returns the number of distinct URLs.
func (b *BatchResult) Len() int {
	return len(b.URLs)
}

// MarshalJSON encodes the results as a JSON object in request order.
func (b *BatchResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, u := range b.URLs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(u)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b.Results[u])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object written by MarshalJSON, keeping key order.
func (b *BatchResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode batch result: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode batch result: expected object")
	}

	b.URLs = nil
	b.Results = make(map[string]*FetchResult)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode batch result: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode batch result: expected string key")
		}
		var r *FetchResult
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("decode result for %q: %w", key, err)
		}
		b.Set(key, r)
	}
	return nil
}

// Summary counts results by outcome.
type Summary struct {
	Total    int   `json:"total"`
	Resolved int   `json:"resolved"`
	Failed   int   `json:"failed"`
	Invalid  int   `json:"invalid"`
	Bytes    int64 `json:"bytes"`
}

// Summary tallies the batch.
func (b *BatchResult) Summary() Summary {
	s := Summary{Total: len(b.URLs)}
	for _, u := range b.URLs {
		r := b.Results[u]
		if r == nil {
			continue
		}
		s.Bytes += r.Bytes
		switch {
		case r.Type == TypeInvalid:
			s.Invalid++
		case r.Type == TypeFailed:
			s.Failed++
		case r.Resolved():
			s.Resolved++
		}
	}
	return s
}
