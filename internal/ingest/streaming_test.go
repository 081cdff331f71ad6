package ingest

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextReader_BOM(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "file with BOM", input: append([]byte{0xEF, 0xBB, 0xBF}, "State,County"...), want: "State,County"},
		{name: "file without BOM", input: []byte("State,County"), want: "State,County"},
		{name: "empty file", input: []byte{}, want: ""},
		{name: "only BOM", input: []byte{0xEF, 0xBB, 0xBF}, want: ""},
		{name: "partial BOM is sanitized", input: []byte{0xEF, 0xBB, 'a'}, want: "??a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newTextReader(bytes.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestTextReader_Sanitizes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "valid ASCII", input: []byte("King,WA"), want: "King,WA"},
		{name: "valid multibyte", input: []byte("Doña Ana,NM"), want: "Doña Ana,NM"},
		{name: "invalid byte", input: []byte{'h', 0x80, 'i'}, want: "h?i"},
		{name: "truncated sequence at EOF", input: []byte{'a', 0xE2, 0x82}, want: "a??"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newTextReader(bytes.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestTextReader_OneByteSource(t *testing.T) {
	input := strings.Repeat("Doña Ana €,", 200)
	got, err := io.ReadAll(newTextReader(iotest.OneByteReader(strings.NewReader(input))))
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestWrapText_Counts(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, "a,b\n1,2\n"...)
	r, counter := wrapText(bytes.NewReader(input), int64(len(input)))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))
	assert.Equal(t, int64(len(input)), counter.n)
	assert.Equal(t, 100, counter.Progress())

	unknown := &countingReader{r: strings.NewReader("x")}
	assert.Equal(t, 0, unknown.Progress())
}
