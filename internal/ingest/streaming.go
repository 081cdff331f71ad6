package ingest

// streaming.go cleans up text input on the fly before it reaches a decoder.
//
//   - textReader skips a leading UTF-8 BOM and replaces invalid UTF-8 bytes with '?'
//   - countingReader tracks bytes consumed from the underlying file
//
// Use wrapText to apply both in the right order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textReader yields valid UTF-8. Invalid bytes become '?' so the output never
// grows relative to the input.
type textReader struct {
	br *bufio.Reader
}

func newTextReader(r io.Reader) *textReader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &textReader{br: br}
}

// Read implements io.Reader. It never splits a multi-byte rune across calls.
func (t *textReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		r, size, err := t.br.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}
		if n+size > len(p) {
			_ = t.br.UnreadRune()
			break
		}
		n += utf8.EncodeRune(p[n:], r)
	}
	return n, nil
}

// countingReader counts bytes read from the wrapped reader.
type countingReader struct {
	r     io.Reader
	n     int64
	total int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Progress returns the share of the input consumed, 0-100.
// Returns 0 if the total size is unknown.
func (c *countingReader) Progress() int {
	if c.total <= 0 {
		return 0
	}
	return int(c.n * 100 / c.total)
}

// wrapText counts raw bytes first, then strips the BOM and sanitizes.
func wrapText(r io.Reader, total int64) (io.Reader, *countingReader) {
	counter := &countingReader{r: r, total: total}
	return newTextReader(counter), counter
}
