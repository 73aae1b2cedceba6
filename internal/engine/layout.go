package engine

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Layout thresholds, in multiples of the font size.
const (
	lineShift      = 0.5 // baseline move that starts a new line
	wordGap        = 0.25
	paragraphGap   = 1.8
	descentRatio   = 0.2
	ascentRatio    = 0.8
	verticalRotate = 90
)

// glyph is a positioned character in content stream order.
type glyph struct {
	text  string
	font  string
	size  float64
	x, y  float64
	width float64
	style fontStyle
}

// em is the size used for distance thresholds. Rotated text matrices can
// report a zero size.
func (g glyph) em() float64 {
	return math.Max(math.Abs(g.size), 1)
}

func (g glyph) blank() bool {
	return strings.TrimFunc(g.text, unicode.IsSpace) == ""
}

// layout groups glyphs into lines, words and paragraphs.
func layout(glyphs []glyph) *StructuredText {
	st := &StructuredText{}

	var (
		para      Paragraph
		prevFirst glyph
	)
	for _, run := range splitLines(glyphs) {
		words := splitWords(run)
		if len(words) == 0 {
			continue
		}
		first := run[0]
		if len(para.Lines) > 0 && newParagraph(prevFirst, first) {
			st.Paragraphs = append(st.Paragraphs, finishParagraph(para))
			para = Paragraph{}
		}
		para.Lines = append(para.Lines, Line{Words: words})
		prevFirst = first
	}
	if len(para.Lines) > 0 {
		st.Paragraphs = append(st.Paragraphs, finishParagraph(para))
	}
	return st
}

// splitLines starts a new line when the baseline moves or the pen jumps
// back to the left.
func splitLines(glyphs []glyph) [][]glyph {
	var (
		lines [][]glyph
		cur   []glyph
	)
	for i, g := range glyphs {
		if len(cur) > 0 {
			prev := glyphs[i-1]
			em := math.Max(prev.em(), g.em())
			if math.Abs(g.y-prev.y) > lineShift*em || g.x < prev.x-em {
				lines = append(lines, cur)
				cur = nil
			}
		}
		cur = append(cur, g)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// splitWords breaks a line at whitespace glyphs and at visible gaps.
func splitWords(line []glyph) []Word {
	var (
		words []Word
		cur   []glyph
	)
	flush := func(spaceAfter bool) {
		if len(cur) > 0 {
			words = append(words, newWord(cur, spaceAfter))
			cur = nil
			return
		}
		if spaceAfter && len(words) > 0 {
			words[len(words)-1].SpaceAfter = true
		}
	}

	for _, g := range line {
		if g.blank() {
			flush(true)
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			if g.x-(prev.x+prev.width) > wordGap*prev.em() {
				flush(true)
			}
		}
		cur = append(cur, g)
	}
	flush(false)

	if len(words) > 0 {
		words[len(words)-1].SpaceAfter = false
	}
	return words
}

func newWord(glyphs []glyph, spaceAfter bool) Word {
	w := Word{
		Rect:       [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)},
		SpaceAfter: spaceAfter,
		Chars:      make([]Char, 0, len(glyphs)),
	}
	for _, g := range glyphs {
		size := math.Abs(g.size)
		x0, x1 := g.x, g.x+g.width
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		w.Rect[0] = math.Min(w.Rect[0], x0)
		w.Rect[1] = math.Min(w.Rect[1], g.y-descentRatio*size)
		w.Rect[2] = math.Max(w.Rect[2], x1)
		w.Rect[3] = math.Max(w.Rect[3], g.y+ascentRatio*size)

		rotation := 0
		if g.style.vertical {
			rotation = verticalRotate
		}
		w.Chars = append(w.Chars, Char{
			C:        g.text,
			U:        norm.NFKC.String(g.text),
			FontName: g.font,
			FontSize: size,
			Baseline: g.y,
			Rotation: rotation,
			Bold:     g.style.bold,
			Italic:   g.style.italic,
		})
	}
	return w
}

// newParagraph reports whether the line starting at cur opens a paragraph
// after the line starting at prev.
func newParagraph(prev, cur glyph) bool {
	gap := prev.y - cur.y
	em := math.Max(prev.em(), cur.em())
	return gap > paragraphGap*em || gap < -lineShift*em
}

// finishParagraph marks lines ending in a hyphen, except the last one.
func finishParagraph(p Paragraph) Paragraph {
	for i := 0; i < len(p.Lines)-1; i++ {
		words := p.Lines[i].Words
		chars := words[len(words)-1].Chars
		last := chars[len(chars)-1].C
		p.Lines[i].Hyphenated = last == "-" || last == "\u00ad"
	}
	return p
}
