// Package recognizer exports per-word layout features for document
// classification.
//
// Every page becomes [width, height, wrapper] where the wrapper nests all
// lines inside a single implicit column, region and block:
//
//	[[[[0, 0, 0, 0, [[line], [line], ...]]]]]
//
// and every line is an array of word records (see Word).
package recognizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/akashicode/pdfworker/internal/engine"
)

// MaxPages is the number of leading pages exported.
const MaxPages = 5

// Reserved record fields. The pipeline has no model for them.
const (
	ReservedRotation   = 0
	ReservedUnderlined = 0
	ReservedColorIndex = 0
)

// ErrEmptyWord is returned for a word without characters.
var ErrEmptyWord = errors.New("word has no characters")

// Source is the part of a reader.Session the extractor needs.
type Source interface {
	NumPages() int
	Metadata() map[string]string
	Page(ctx context.Context, index int) (engine.PageInfo, error)
	FetchPage(ctx context.Context, index int) (*engine.StructuredText, error)
}

// Result is the exported document.
type Result struct {
	Metadata   map[string]string `json:"metadata" yaml:"metadata"`
	TotalPages int               `json:"totalPages" yaml:"totalPages"`
	Pages      []Page            `json:"pages" yaml:"pages"`
}

// Page is one exported page. Lines never hold an empty line.
type Page struct {
	Width  float64
	Height float64
	Lines  []Line
}

// Line is the records of one text line.
type Line []Word

// Word is one feature record. Coordinates are top-down.
type Word struct {
	XMin       float64
	YMin       float64
	XMax       float64
	YMax       float64
	FontSize   float64
	SpaceAfter int
	Baseline   float64
	Rotation   int
	Underlined int
	Bold       int
	Italic     int
	ColorIndex int
	FontIndex  int
	Text       string
}

func (w Word) tuple() []any {
	return []any{
		w.XMin, w.YMin, w.XMax, w.YMax,
		w.FontSize,
		w.SpaceAfter,
		w.Baseline,
		w.Rotation,
		w.Underlined,
		w.Bold,
		w.Italic,
		w.ColorIndex,
		w.FontIndex,
		w.Text,
	}
}

// MarshalJSON encodes the record as a flat array.
func (w Word) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.tuple())
}

// MarshalYAML encodes the record as a flow sequence.
func (w Word) MarshalYAML() (any, error) {
	return w.tuple(), nil
}

func (p Page) tuple() []any {
	lines := make([]any, len(p.Lines))
	for i, line := range p.Lines {
		lines[i] = []any{[]Word(line)}
	}
	block := []any{0, 0, 0, 0, lines}
	return []any{p.Width, p.Height, []any{[]any{[]any{block}}}}
}

// MarshalJSON encodes the page as [width, height, wrapper].
func (p Page) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.tuple())
}

// MarshalYAML encodes the page as [width, height, wrapper].
func (p Page) MarshalYAML() (any, error) {
	return p.tuple(), nil
}

// Extract exports the first MaxPages pages of src.
func Extract(ctx context.Context, src Source) (*Result, error) {
	total := src.NumPages()
	count := min(MaxPages, total)

	res := &Result{
		Metadata:   src.Metadata(),
		TotalPages: total,
		Pages:      make([]Page, 0, count),
	}
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := src.Page(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		st, err := src.FetchPage(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		page, err := exportPage(info, st)
		if err != nil {
			return nil, fmt.Errorf("export page %d: %w", i, err)
		}
		res.Pages = append(res.Pages, page)
	}
	return res, nil
}

func exportPage(info engine.PageInfo, st *engine.StructuredText) (Page, error) {
	page := Page{Width: info.View[2], Height: info.View[3]}
	var fonts []string

	for _, para := range st.Paragraphs {
		for _, line := range para.Lines {
			var out Line
			for _, w := range line.Words {
				rec, err := record(w, page.Height, &fonts)
				if err != nil {
					return Page{}, err
				}
				out = append(out, rec)
			}
			if len(out) > 0 {
				page.Lines = append(page.Lines, out)
			}
		}
	}
	return page, nil
}

func record(w engine.Word, height float64, fonts *[]string) (Word, error) {
	if len(w.Chars) == 0 {
		return Word{}, ErrEmptyWord
	}
	c := w.Chars[0]

	baseline := c.Baseline
	if c.Rotation == 0 {
		baseline = round(height - c.Baseline)
	}

	var text strings.Builder
	for _, ch := range w.Chars {
		text.WriteString(ch.U)
	}

	return Word{
		XMin:       round(w.Rect[0]),
		YMin:       round(height - w.Rect[3]),
		XMax:       round(w.Rect[2]),
		YMax:       round(height - w.Rect[1]),
		FontSize:   round(c.FontSize),
		SpaceAfter: flag(w.SpaceAfter),
		Baseline:   round(baseline),
		Rotation:   ReservedRotation,
		Underlined: ReservedUnderlined,
		Bold:       flag(c.Bold),
		Italic:     flag(c.Italic),
		ColorIndex: ReservedColorIndex,
		FontIndex:  fontIndex(fonts, c.FontName),
		Text:       text.String(),
	}, nil
}

// fontIndex returns the first-seen position of name, appending it when new.
func fontIndex(fonts *[]string, name string) int {
	for i, f := range *fonts {
		if f == name {
			return i
		}
	}
	*fonts = append(*fonts, name)
	return len(*fonts) - 1
}

// round rounds half up to four decimals.
func round(v float64) float64 {
	return math.Floor(v*10000+0.5) / 10000
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
