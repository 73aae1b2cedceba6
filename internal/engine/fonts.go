package engine

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/image/font/sfnt"
)

// Font descriptor flags.
const (
	flagItalic    = 1 << 6
	flagForceBold = 1 << 18
)

// fontStyle is what the layout needs to know about a font.
type fontStyle struct {
	bold     bool
	italic   bool
	vertical bool
}

func (s fontStyle) merge(o fontStyle) fontStyle {
	return fontStyle{
		bold:     s.bold || o.bold,
		italic:   s.italic || o.italic,
		vertical: s.vertical || o.vertical,
	}
}

// standardFontFiles maps the standard 14 fonts to the font programs a host
// serves for them.
var standardFontFiles = map[string]string{
	"Courier":               "FoxitFixed.pfb",
	"Courier-Bold":          "FoxitFixedBold.pfb",
	"Courier-BoldOblique":   "FoxitFixedBoldItalic.pfb",
	"Courier-Oblique":       "FoxitFixedItalic.pfb",
	"Helvetica":             "LiberationSans-Regular.ttf",
	"Helvetica-Bold":        "LiberationSans-Bold.ttf",
	"Helvetica-BoldOblique": "LiberationSans-BoldItalic.ttf",
	"Helvetica-Oblique":     "LiberationSans-Italic.ttf",
	"Times-Roman":           "FoxitSerif.pfb",
	"Times-Bold":            "FoxitSerifBold.pfb",
	"Times-BoldItalic":      "FoxitSerifBoldItalic.pfb",
	"Times-Italic":          "FoxitSerifItalic.pfb",
	"Symbol":                "FoxitSymbol.pfb",
	"ZapfDingbats":          "FoxitDingbats.pfb",
}

var standardFontAliases = map[string]string{
	"Arial":                        "Helvetica",
	"ArialMT":                      "Helvetica",
	"Arial-Bold":                   "Helvetica-Bold",
	"Arial-BoldMT":                 "Helvetica-Bold",
	"Arial-Italic":                 "Helvetica-Oblique",
	"Arial-ItalicMT":               "Helvetica-Oblique",
	"Arial-BoldItalic":             "Helvetica-BoldOblique",
	"Arial-BoldItalicMT":           "Helvetica-BoldOblique",
	"Helvetica-Italic":             "Helvetica-Oblique",
	"Helvetica-BoldItalic":         "Helvetica-BoldOblique",
	"Courier-Italic":               "Courier-Oblique",
	"Courier-BoldItalic":           "Courier-BoldOblique",
	"CourierNew":                   "Courier",
	"CourierNewPSMT":               "Courier",
	"CourierNew-Bold":              "Courier-Bold",
	"CourierNewPS-BoldMT":          "Courier-Bold",
	"CourierNew-Italic":            "Courier-Oblique",
	"CourierNewPS-ItalicMT":        "Courier-Oblique",
	"CourierNew-BoldItalic":        "Courier-BoldOblique",
	"CourierNewPS-BoldItalicMT":    "Courier-BoldOblique",
	"Times":                        "Times-Roman",
	"TimesNewRoman":                "Times-Roman",
	"TimesNewRomanPSMT":            "Times-Roman",
	"TimesNewRoman-Bold":           "Times-Bold",
	"TimesNewRomanPS-BoldMT":       "Times-Bold",
	"TimesNewRoman-Italic":         "Times-Italic",
	"TimesNewRomanPS-ItalicMT":     "Times-Italic",
	"TimesNewRoman-BoldItalic":     "Times-BoldItalic",
	"TimesNewRomanPS-BoldItalicMT": "Times-BoldItalic",
}

// stripSubset removes a "ABCDEF+" subset tag.
func stripSubset(name string) string {
	if i := strings.IndexByte(name, '+'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// standardFontFile returns the font program filename for a standard font
// or one of its common aliases.
func standardFontFile(name string) (string, bool) {
	name = strings.ReplaceAll(stripSubset(name), " ", "")
	name = strings.ReplaceAll(name, ",", "-")
	if alias, ok := standardFontAliases[name]; ok {
		name = alias
	}
	file, ok := standardFontFiles[name]
	return file, ok
}

func styleFromName(name string) fontStyle {
	lower := strings.ToLower(name)
	var s fontStyle
	for _, w := range []string{"bold", "black", "heavy", "semibold", "demi"} {
		if strings.Contains(lower, w) {
			s.bold = true
			break
		}
	}
	s.italic = strings.Contains(lower, "italic") || strings.Contains(lower, "oblique")
	return s
}

func styleFromDescriptor(desc pdf.Value) fontStyle {
	if desc.Kind() != pdf.Dict {
		return fontStyle{}
	}
	flags := desc.Key("Flags").Int64()
	return fontStyle{
		bold:   flags&flagForceBold != 0 || desc.Key("FontWeight").Float64() >= 600,
		italic: flags&flagItalic != 0 || desc.Key("ItalicAngle").Float64() != 0,
	}
}

// embedded reports whether the descriptor carries a font program.
func embedded(desc pdf.Value) bool {
	for _, key := range []string{"FontFile", "FontFile2", "FontFile3"} {
		if !desc.Key(key).IsNull() {
			return true
		}
	}
	return false
}

var (
	weightRe      = regexp.MustCompile(`/Weight\s*\((\w+)\)`)
	italicAngleRe = regexp.MustCompile(`/ItalicAngle\s+(-?[0-9.]+)`)
	wmodeRe       = regexp.MustCompile(`/WMode\s+([0-9]+)`)
)

// styleFromProgram reads the style a standard font program declares.
func styleFromProgram(data []byte) fontStyle {
	if f, err := sfnt.Parse(data); err == nil {
		var s fontStyle
		if sub, err := f.Name(nil, sfnt.NameIDSubfamily); err == nil {
			s = styleFromName(sub)
		}
		if post := f.PostTable(); post != nil && post.ItalicAngle != 0 {
			s.italic = true
		}
		return s
	}

	// Type 1 programs keep their font info in clear text.
	var s fontStyle
	if m := weightRe.FindSubmatch(data); m != nil {
		s.bold = styleFromName(string(m[1])).bold
	}
	if m := italicAngleRe.FindSubmatch(data); m != nil {
		if angle, err := strconv.ParseFloat(string(m[1]), 64); err == nil && angle != 0 {
			s.italic = true
		}
	}
	return s
}

// cmapVertical reports whether a character map payload declares vertical
// writing. Text maps carry /WMode, binary maps flag it in the header byte.
func cmapVertical(data []byte) bool {
	if bytes.Contains(data, []byte("begincmap")) {
		m := wmodeRe.FindSubmatch(data)
		return m != nil && string(m[1]) == "1"
	}
	return len(data) > 0 && data[0]&1 != 0
}

// resolveFont works out the style of a font dictionary, asking h for the
// predefined character map or standard font program it depends on.
func resolveFont(ctx context.Context, font pdf.Value, h ResourceHandler) (fontStyle, error) {
	base := stripSubset(font.Key("BaseFont").Name())
	style := styleFromName(base)
	desc := font.Key("FontDescriptor")

	if font.Key("Subtype").Name() == "Type0" {
		desc = font.Key("DescendantFonts").Index(0).Key("FontDescriptor")
		enc := font.Key("Encoding")
		switch enc.Kind() {
		case pdf.Name:
			vertical, err := encodingVertical(ctx, enc.Name(), h)
			if err != nil {
				return style, err
			}
			style.vertical = vertical
		case pdf.Stream:
			style.vertical = enc.Key("WMode").Int64() == 1
		}
	}
	style = style.merge(styleFromDescriptor(desc))

	if embedded(desc) || h == nil {
		return style, nil
	}
	file, ok := standardFontFile(base)
	if !ok {
		return style, nil
	}
	data, err := h.Handle(ctx, Request{Kind: RequestStandardFontData, Name: file})
	if err != nil {
		return style, err
	}
	if len(data) > 0 {
		style = style.merge(styleFromProgram(data))
	}
	return style, nil
}

func encodingVertical(ctx context.Context, name string, h ResourceHandler) (bool, error) {
	switch name {
	case "Identity-H":
		return false, nil
	case "Identity-V":
		return true, nil
	}
	if h == nil {
		return strings.HasSuffix(name, "-V"), nil
	}
	data, err := h.Handle(ctx, Request{Kind: RequestBuiltInCMap, Name: name})
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return strings.HasSuffix(name, "-V"), nil
	}
	return cmapVertical(data), nil
}
