package recognizer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/akashicode/pdfworker/internal/engine"
	et "github.com/akashicode/pdfworker/internal/engine/enginetest"
	"github.com/akashicode/pdfworker/internal/reader"
)

// doc is a Source over in-memory pages.
type doc struct {
	infos    []engine.PageInfo
	texts    []*engine.StructuredText
	meta     map[string]string
	fetchErr error
	fetched  int
}

func (d *doc) NumPages() int               { return len(d.texts) }
func (d *doc) Metadata() map[string]string { return d.meta }

func (d *doc) Page(_ context.Context, i int) (engine.PageInfo, error) {
	return d.infos[i], nil
}

func (d *doc) FetchPage(_ context.Context, i int) (*engine.StructuredText, error) {
	d.fetched++
	if d.fetchErr != nil {
		return nil, d.fetchErr
	}
	return d.texts[i], nil
}

func letterDoc(texts ...*engine.StructuredText) *doc {
	d := &doc{texts: texts}
	for range texts {
		d.infos = append(d.infos, et.Letter)
	}
	return d
}

var (
	regular = et.Style{Font: "Helvetica", Size: 12, Baseline: 100}
	heading = et.Style{Font: "Helvetica-Bold", Size: 18.123456, Baseline: 700, Bold: true}
)

func TestExtract_Record(t *testing.T) {
	w := et.Word("Hello", [4]float64{72, 97.6, 102, 109.6}, true, regular)
	d := letterDoc(et.Text(et.Paragraph(et.Line(false, w))))

	res, err := Extract(context.Background(), d)
	require.NoError(t, err)

	want := []Page{{
		Width:  612,
		Height: 792,
		Lines: []Line{{{
			XMin:       72,
			YMin:       682.4,
			XMax:       102,
			YMax:       694.4,
			FontSize:   12,
			SpaceAfter: 1,
			Baseline:   692,
			FontIndex:  0,
			Text:       "Hello",
		}}},
	}}
	if diff := cmp.Diff(want, res.Pages); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_RotatedBaselineIsNotFlipped(t *testing.T) {
	style := regular
	style.Rotation = 90
	style.Baseline = 123.456789
	d := letterDoc(et.Text(et.Paragraph(et.Line(false, et.Word("up", [4]float64{0, 0, 10, 20}, false, style)))))

	res, err := Extract(context.Background(), d)
	require.NoError(t, err)
	rec := res.Pages[0].Lines[0][0]
	assert.Equal(t, 123.4568, rec.Baseline)
	// the record's rotation field is reserved
	assert.Equal(t, ReservedRotation, rec.Rotation)
}

func TestExtract_FontIndexFirstSeen(t *testing.T) {
	serif := et.Style{Font: "Times-Roman", Size: 10, Baseline: 600}
	d := letterDoc(
		et.Text(
			et.Paragraph(et.Words(serif, "a", "b")),
			et.Paragraph(et.Words(heading, "Title"), et.Words(serif, "c")),
			et.Paragraph(et.Words(regular, "z")),
		),
		et.Text(et.Paragraph(et.Words(regular, "next"), et.Words(serif, "page"))),
	)

	res, err := Extract(context.Background(), d)
	require.NoError(t, err)

	var got [][]int
	for _, p := range res.Pages {
		var idx []int
		for _, line := range p.Lines {
			for _, w := range line {
				idx = append(idx, w.FontIndex)
			}
		}
		got = append(got, idx)
	}
	// indexes restart on every page
	assert.Equal(t, [][]int{{0, 0, 1, 0, 2}, {0, 1}}, got)
}

func TestExtract_StyleFlagsAndText(t *testing.T) {
	italic := regular
	italic.Italic = true
	w := et.Word("\ufb01ne", [4]float64{}, false, italic)
	d := letterDoc(et.Text(
		et.Paragraph(et.Words(heading, "Bold")),
		et.Paragraph(et.Line(false, w)),
	))

	res, err := Extract(context.Background(), d)
	require.NoError(t, err)
	lines := res.Pages[0].Lines
	require.Len(t, lines, 2)

	assert.Equal(t, 1, lines[0][0].Bold)
	assert.Equal(t, 0, lines[0][0].Italic)
	assert.Equal(t, 18.1235, lines[0][0].FontSize)
	assert.Equal(t, 0, lines[0][0].SpaceAfter)

	assert.Equal(t, 0, lines[1][0].Bold)
	assert.Equal(t, 1, lines[1][0].Italic)
	// normalized text
	assert.Equal(t, "fine", lines[1][0].Text)
}

func TestExtract_DropsEmptyLines(t *testing.T) {
	d := letterDoc(et.Text(
		et.Paragraph(et.Line(false), et.Words(regular, "kept"), et.Line(true)),
		et.Paragraph(),
	))

	res, err := Extract(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	require.Len(t, res.Pages[0].Lines, 1)
	assert.Equal(t, "kept", res.Pages[0].Lines[0][0].Text)
}

func TestExtract_PageCap(t *testing.T) {
	var texts []*engine.StructuredText
	for i := 0; i < 7; i++ {
		texts = append(texts, et.Text(et.Paragraph(et.Words(regular, "p"))))
	}
	d := letterDoc(texts...)

	res, err := Extract(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 7, res.TotalPages)
	assert.Len(t, res.Pages, MaxPages)
	assert.Equal(t, MaxPages, d.fetched)

	short := letterDoc(et.Text(), et.Text())
	res, err = Extract(context.Background(), short)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalPages)
	assert.Len(t, res.Pages, 2)
	assert.Empty(t, res.Pages[1].Lines)
}

func TestExtract_PageSizeFromViewBox(t *testing.T) {
	d := &doc{
		infos: []engine.PageInfo{{View: [4]float64{10, 10, 600, 800}}},
		texts: []*engine.StructuredText{et.Text()},
	}
	res, err := Extract(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 600.0, res.Pages[0].Width)
	assert.Equal(t, 800.0, res.Pages[0].Height)
}

func TestExtract_EmptyWordFails(t *testing.T) {
	d := letterDoc(et.Text(et.Paragraph(et.Line(false, engine.Word{Rect: [4]float64{1, 2, 3, 4}}))))

	res, err := Extract(context.Background(), d)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrEmptyWord)
}

func TestExtract_FetchFailureAborts(t *testing.T) {
	boom := errors.New("font fetch failed")
	d := letterDoc(et.Text(), et.Text())
	d.fetchErr = boom

	_, err := Extract(context.Background(), d)
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "extract page 0: font fetch failed")
	assert.Equal(t, 1, d.fetched)
}

func TestExtract_Session(t *testing.T) {
	eng := &et.Engine{Spec: et.Spec{
		Pages: []et.Page{{Info: et.Letter, Text: et.Text(et.Paragraph(et.Words(regular, "hi")))}},
		Info: map[string]any{
			"PDFFormatVersion": "1.4",
			"Title":            "Report",
			"Custom":           map[string]any{"Owner": "ops"},
		},
	}}
	s, err := reader.Open(context.Background(), eng, nil, nil, "")
	require.NoError(t, err)
	defer s.Close()

	res, err := Extract(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Title": "Report", "Owner": "ops"}, res.Metadata)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, "hi", res.Pages[0].Lines[0][0].Text)
}

func TestPage_MarshalJSON(t *testing.T) {
	p := Page{
		Width:  612,
		Height: 792,
		Lines: []Line{
			{{XMin: 1, YMin: 2, XMax: 3, YMax: 4, FontSize: 12, SpaceAfter: 1, Baseline: 5, Text: "a"}, {Text: "b", FontIndex: 1}},
			{{Bold: 1, Italic: 1, Text: "c"}},
		},
	}
	got, err := json.Marshal(p)
	require.NoError(t, err)

	want := `[612,792,[[[[0,0,0,0,[` +
		`[[[1,2,3,4,12,1,5,0,0,0,0,0,0,"a"],[0,0,0,0,0,0,0,0,0,0,0,0,1,"b"]]],` +
		`[[[0,0,0,0,0,0,0,0,0,1,1,0,0,"c"]]]` +
		`]]]]]]`
	assert.JSONEq(t, want, string(got))

	empty, err := json.Marshal(Page{Width: 1, Height: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,[[[[0,0,0,0,[]]]]]]`, string(empty))
}

func TestResult_MarshalYAML(t *testing.T) {
	res := Result{
		Metadata:   map[string]string{"Title": "T"},
		TotalPages: 1,
		Pages:      []Page{{Width: 10, Height: 20, Lines: []Line{{{Text: "w", FontSize: 9}}}}},
	}
	out, err := yaml.Marshal(res)
	require.NoError(t, err)

	var back struct {
		Metadata   map[string]string `yaml:"metadata"`
		TotalPages int               `yaml:"totalPages"`
		Pages      []any             `yaml:"pages"`
	}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "T", back.Metadata["Title"])
	assert.Equal(t, 1, back.TotalPages)

	want := []any{
		[]any{10, 20, []any{[]any{[]any{[]any{0, 0, 0, 0, []any{
			[]any{[]any{[]any{0, 0, 0, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0, "w"}}},
		}}}}}},
	}
	if diff := cmp.Diff(want, back.Pages); diff != "" {
		t.Errorf("yaml pages mismatch (-want +got):\n%s", diff)
	}
}
