package enginetest

import (
	"golang.org/x/text/unicode/norm"

	"github.com/akashicode/pdfworker/internal/engine"
)

// Letter is a US letter page view box.
var Letter = engine.PageInfo{View: [4]float64{0, 0, 612, 792}}

// Style is the per-character template used by Word.
type Style struct {
	Font     string
	Size     float64
	Baseline float64
	Rotation int
	Bold     bool
	Italic   bool
}

// Word builds a word with one character per rune of text.
func Word(text string, rect [4]float64, spaceAfter bool, s Style) engine.Word {
	w := engine.Word{Rect: rect, SpaceAfter: spaceAfter}
	for _, r := range text {
		c := string(r)
		w.Chars = append(w.Chars, engine.Char{
			C:        c,
			U:        norm.NFKC.String(c),
			FontName: s.Font,
			FontSize: s.Size,
			Baseline: s.Baseline,
			Rotation: s.Rotation,
			Bold:     s.Bold,
			Italic:   s.Italic,
		})
	}
	return w
}

// Line builds a line.
func Line(hyphenated bool, words ...engine.Word) engine.Line {
	return engine.Line{Words: words, Hyphenated: hyphenated}
}

// Paragraph builds a paragraph.
func Paragraph(lines ...engine.Line) engine.Paragraph {
	return engine.Paragraph{Lines: lines}
}

// Text builds a page's structured text.
func Text(paragraphs ...engine.Paragraph) *engine.StructuredText {
	return &engine.StructuredText{Paragraphs: paragraphs}
}

// Words builds a single line of words separated by spaces.
func Words(s Style, texts ...string) engine.Line {
	var (
		words []engine.Word
		x     float64
	)
	for i, t := range texts {
		width := float64(len([]rune(t))) * s.Size / 2
		rect := [4]float64{x, s.Baseline - 0.2*s.Size, x + width, s.Baseline + 0.8*s.Size}
		words = append(words, Word(t, rect, i < len(texts)-1, s))
		x += width + s.Size/4
	}
	return Line(false, words...)
}
