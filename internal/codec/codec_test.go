package codec

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single byte", "a"},
		{"ascii", "TOBEORNOTTOBEORTOBEORNOT"},
		{"repeated run", strings.Repeat("a", 5000)},
		{"control characters", "line1\nline2\r\n\t\x00\x01\x1f\x7f end"},
		{"arabic", "خرسانة جاهزة مقاومة 350 كجم/سم²"},
		{"emoji and mixed", "price 📈 +3.1% — حديد تسليح / rebar"},
		{"json", `{"id":"steel-rebar-12","prices":{"riyadh":3264,"jeddah":3360},"history":[3200,3210,3190]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := Compress(tt.input)
			got, err := Decompress(token)
			require.NoError(t, err)
			assert.Equal(t, tt.input, got)
		})
	}
}

func TestRoundTripRandomBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		buf := make([]byte, rng.Intn(2048))
		for j := range buf {
			// small alphabet to exercise the code == next-code path
			buf[j] = byte(rng.Intn(4))
			if rng.Intn(10) == 0 {
				buf[j] = byte(rng.Intn(256))
			}
		}
		in := string(buf)
		out, err := Decompress(Compress(in))
		require.NoError(t, err)
		require.Equal(t, in, out)
	}
}

func TestCompressShrinksRepetitiveText(t *testing.T) {
	in := strings.Repeat(`{"category":"concrete","region":"riyadh"},`, 200)
	token := Compress(in)
	assert.Less(t, len(token), len(in)/3)
}

func TestTokenIsTransportSafe(t *testing.T) {
	token := Compress("\x00\x01\x02 binary-ish \x1b[0m")
	for _, r := range token {
		assert.True(t, r > 0x20 && r < 0x7f, "unexpected rune %q in token", r)
	}
}

func TestDecompressCorruptData(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "@@not-base64@@"},
		// 'A' as the first code, then a 9-bit code of 511 which no dictionary can hold yet.
		{"unknown code", encoding.EncodeToString([]byte{0x41, 0xFF, 0xFF})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(tt.token)
			require.Error(t, err)
			var corrupt *CorruptDataError
			assert.True(t, errors.As(err, &corrupt))
		})
	}
}

func TestCodecMemoIsBounded(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		s := strings.Repeat("x", i+1)
		out, err := c.Decompress(c.Compress(s))
		require.NoError(t, err)
		require.Equal(t, s, out)
	}

	compressed, decompressed := c.CacheLen()
	assert.Equal(t, 4, compressed)
	assert.Equal(t, 4, decompressed)

	c.ClearCache()
	compressed, decompressed = c.CacheLen()
	assert.Zero(t, compressed)
	assert.Zero(t, decompressed)
}

func TestCodecWithoutMemo(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	out, err := c.Decompress(c.Compress("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	compressed, decompressed := c.CacheLen()
	assert.Zero(t, compressed+decompressed)
}

func TestCompressObjectRoundTrip(t *testing.T) {
	type corpusRow struct {
		Category string             `json:"category"`
		Prices   map[string]float64 `json:"prices"`
		Tags     []string           `json:"tags"`
	}
	c, err := New(16)
	require.NoError(t, err)

	in := corpusRow{
		Category: "steel",
		Prices:   map[string]float64{"riyadh": 3264.5, "dammam": 3136},
		Tags:     []string{"rebar", "حديد"},
	}
	token, err := c.CompressObject(in)
	require.NoError(t, err)

	var out corpusRow
	require.NoError(t, c.DecompressObject(token, &out))
	assert.Equal(t, in, out)
}

func TestDecompressObjectCorrupt(t *testing.T) {
	c, err := New(16)
	require.NoError(t, err)

	var out map[string]any
	err = c.DecompressObject("@@", &out)
	var corrupt *CorruptDataError
	assert.True(t, errors.As(err, &corrupt))
}
