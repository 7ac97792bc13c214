package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Run("single header", func(t *testing.T) {
		h := NewHeaders()
		require.NoError(t, h.ParseLine([]byte("Host: localhost:42069")))
		val, ok := h.Get("host")
		assert.True(t, ok)
		assert.Equal(t, "localhost:42069", val)
		assert.Equal(t, 1, h.Len())
	})

	t.Run("surrounding whitespace trimmed", func(t *testing.T) {
		h := NewHeaders()
		require.NoError(t, h.ParseLine([]byte("Host:   localhost:42069   ")))
		val, _ := h.Get("host")
		assert.Equal(t, "localhost:42069", val)
	})

	t.Run("duplicates keep every value", func(t *testing.T) {
		h := NewHeaders()
		require.NoError(t, h.ParseLine([]byte("Accept: a")))
		require.NoError(t, h.ParseLine([]byte("Accept: b")))
		assert.Equal(t, []string{"a", "b"}, h.GetAll("accept"))
		val, _ := h.Get("accept")
		assert.Equal(t, "a", val)
	})

	t.Run("case insensitive lookup", func(t *testing.T) {
		h := NewHeaders()
		require.NoError(t, h.ParseLine([]byte("X-Trace: abc")))
		val, ok := h.Get("X-TRACE")
		assert.True(t, ok)
		assert.Equal(t, "abc", val)
	})

	t.Run("empty value allowed", func(t *testing.T) {
		h := NewHeaders()
		require.NoError(t, h.ParseLine([]byte("X-Empty:")))
		val, ok := h.Get("x-empty")
		assert.True(t, ok)
		assert.Equal(t, "", val)
	})

	t.Run("user agent", func(t *testing.T) {
		h := NewHeaders()
		require.NoError(t, h.ParseLine([]byte("User-Agent: curl/8.0")))
		val, _ := h.Get("user-agent")
		assert.Equal(t, "curl/8.0", val)
	})
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"empty line", "", "malformed"},
		{"space before colon", "Host : localhost", "malformed"},
		{"space inside name", "Ho st: localhost", "malformed"},
		{"no colon", "InvalidHeader", "malformed"},
		{"empty name", ": value", "malformed"},
		{"invalid character", "HÂ©st: localhost", "invalid character"},
		{"folded with space", " continued", "line folding"},
		{"folded with tab", "\tcontinued", "line folding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeaders()
			err := h.ParseLine([]byte(tt.line))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, 0, h.Len())
		})
	}
}

func TestHeaderNames(t *testing.T) {
	h := NewHeaders()
	h.Add("X-Custom", "value1")
	h.Add("X-Custom", "value2")
	assert.Equal(t, []string{"value1", "value2"}, h.GetAll("x-custom"))

	h.Add("Accept", "*/*")
	assert.Equal(t, []string{"accept", "x-custom"}, h.Names())
	assert.Equal(t, 2, h.Len())
	assert.Len(t, h.GetAllHeaders(), 2)
}
