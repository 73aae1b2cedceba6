package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

func TestStandardFontFile(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"Helvetica", "LiberationSans-Regular.ttf", true},
		{"ABCDEF+Helvetica-Bold", "LiberationSans-Bold.ttf", true},
		{"Arial", "LiberationSans-Regular.ttf", true},
		{"Arial,Bold", "LiberationSans-Bold.ttf", true},
		{"Arial-BoldItalicMT", "LiberationSans-BoldItalic.ttf", true},
		{"Times-Roman", "FoxitSerif.pfb", true},
		{"TimesNewRoman", "FoxitSerif.pfb", true},
		{"TimesNewRomanPS-BoldMT", "FoxitSerifBold.pfb", true},
		{"Courier New", "FoxitFixed.pfb", true},
		{"Courier-BoldOblique", "FoxitFixedBoldItalic.pfb", true},
		{"Symbol", "FoxitSymbol.pfb", true},
		{"ZapfDingbats", "FoxitDingbats.pfb", true},
		{"Garamond", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := standardFontFile(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStyleFromName(t *testing.T) {
	assert.Equal(t, fontStyle{bold: true}, styleFromName("Helvetica-Bold"))
	assert.Equal(t, fontStyle{italic: true}, styleFromName("Courier-Oblique"))
	assert.Equal(t, fontStyle{bold: true, italic: true}, styleFromName("MinionPro-SemiboldItalic"))
	assert.Equal(t, fontStyle{bold: true}, styleFromName("Arial Black"))
	assert.Equal(t, fontStyle{}, styleFromName("Times-Roman"))
}

func TestStyleFromProgram_TrueType(t *testing.T) {
	assert.Equal(t, fontStyle{}, styleFromProgram(goregular.TTF))
	assert.True(t, styleFromProgram(gobold.TTF).bold)
	assert.True(t, styleFromProgram(goitalic.TTF).italic)
}

func TestStyleFromProgram_Type1(t *testing.T) {
	bold := []byte("%!PS-AdobeFont-1.0: Foxit-Bold\n/FontInfo 8 dict dup begin\n/Weight (Bold) readonly def\n/ItalicAngle 0 def\nend")
	italic := []byte("%!PS-AdobeFont-1.0\n/Weight (Medium) readonly def\n/ItalicAngle -12.5 def\n")

	assert.Equal(t, fontStyle{bold: true}, styleFromProgram(bold))
	assert.Equal(t, fontStyle{italic: true}, styleFromProgram(italic))
	assert.Equal(t, fontStyle{}, styleFromProgram([]byte("garbage")))
}

func TestCMapVertical(t *testing.T) {
	assert.True(t, cmapVertical([]byte("/CIDInit /ProcSet findresource begin\nbegincmap\n/WMode 1 def\nendcmap")))
	assert.False(t, cmapVertical([]byte("begincmap\n/WMode 0 def\nendcmap")))
	assert.False(t, cmapVertical([]byte("begincmap\nendcmap")))
	assert.True(t, cmapVertical([]byte{0x01, 0x10}))
	assert.False(t, cmapVertical([]byte{0x00, 0x10}))
	assert.False(t, cmapVertical(nil))
}

// handler records requests and answers from a table.
type handler struct {
	reqs    []Request
	answers map[string][]byte
	err     error
}

func (h *handler) Handle(_ context.Context, req Request) ([]byte, error) {
	h.reqs = append(h.reqs, req)
	if h.err != nil {
		return nil, h.err
	}
	return h.answers[req.Name], nil
}

func TestEncodingVertical(t *testing.T) {
	ctx := context.Background()

	v, err := encodingVertical(ctx, "Identity-V", nil)
	require.NoError(t, err)
	assert.True(t, v)

	h := &handler{answers: map[string][]byte{"UniJIS-UCS2-V": []byte("begincmap /WMode 1 def endcmap")}}
	v, err = encodingVertical(ctx, "UniJIS-UCS2-V", h)
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, []Request{{Kind: RequestBuiltInCMap, Name: "UniJIS-UCS2-V"}}, h.reqs)

	// unavailable maps fall back to the name
	v, err = encodingVertical(ctx, "UniGB-UCS2-H", h)
	require.NoError(t, err)
	assert.False(t, v)

	failing := &handler{err: errors.New("bridge closed")}
	_, err = encodingVertical(ctx, "UniGB-UCS2-H", failing)
	assert.EqualError(t, err, "bridge closed")
}
