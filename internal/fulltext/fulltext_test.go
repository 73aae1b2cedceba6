package fulltext

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashicode/pdfworker/internal/engine"
	et "github.com/akashicode/pdfworker/internal/engine/enginetest"
)

// pages is a Source over in-memory pages.
type pages struct {
	texts   []*engine.StructuredText
	fail    map[int]error
	fetched []int
}

func (p *pages) NumPages() int { return len(p.texts) }

func (p *pages) FetchPage(_ context.Context, index int) (*engine.StructuredText, error) {
	p.fetched = append(p.fetched, index)
	if err := p.fail[index]; err != nil {
		return nil, err
	}
	return p.texts[index], nil
}

var body = et.Style{Font: "Helvetica", Size: 12, Baseline: 700}

func page(paragraphs ...engine.Paragraph) *engine.StructuredText {
	return et.Text(paragraphs...)
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		limit, total, want int
	}{
		{0, 3, 3},
		{-1, 3, 3},
		{2, 3, 2},
		{3, 3, 3},
		{10, 3, 3},
		{1, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PageCount(tt.limit, tt.total), "limit %d of %d", tt.limit, tt.total)
	}
}

func TestExtract_TwoPages(t *testing.T) {
	src := &pages{texts: []*engine.StructuredText{
		page(et.Paragraph(et.Words(body, "Hello", "world"))),
		page(et.Paragraph(et.Words(body, "Second", "page"))),
	}}

	res, err := Extract(context.Background(), src, 0)
	require.NoError(t, err)

	assert.Equal(t, "Hello world\n\n\fSecond page\n\n", res.Text)
	assert.Equal(t, 2, res.ExtractedPages)
	assert.Equal(t, 2, res.TotalPages)
	assert.True(t, strings.HasSuffix(res.Text, "\n\n"))
	assert.False(t, strings.HasSuffix(res.Text, "\f"))
}

func TestExtract_LinesAndParagraphs(t *testing.T) {
	src := &pages{texts: []*engine.StructuredText{
		page(
			et.Paragraph(
				et.Words(body, "first", "line"),
				et.Words(body, "second"),
			),
			et.Paragraph(et.Words(body, "next", "paragraph")),
		),
	}}

	res, err := Extract(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, "first line second\nnext paragraph\n\n", res.Text)
}

func TestExtract_HyphenatedLineDropsLastPiece(t *testing.T) {
	hyphen := et.Line(true, et.Word("extra-", [4]float64{}, false, body))
	src := &pages{texts: []*engine.StructuredText{
		page(et.Paragraph(
			hyphen,
			et.Words(body, "ordinary", "case"),
		)),
	}}

	res, err := Extract(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, "extraordinary case\n\n", res.Text)
}

func TestExtract_HyphenatedLastLineKeepsHyphen(t *testing.T) {
	src := &pages{texts: []*engine.StructuredText{
		page(et.Paragraph(et.Line(true, et.Word("dash-", [4]float64{}, false, body)))),
	}}

	res, err := Extract(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, "dash-\n\n", res.Text)
}

func TestExtract_PageLimit(t *testing.T) {
	src := &pages{texts: []*engine.StructuredText{
		page(et.Paragraph(et.Words(body, "one"))),
		page(et.Paragraph(et.Words(body, "two"))),
		page(et.Paragraph(et.Words(body, "three"))),
	}}

	res, err := Extract(context.Background(), src, 2)
	require.NoError(t, err)
	assert.Equal(t, "one\n\n\ftwo\n\n", res.Text)
	assert.Equal(t, 2, res.ExtractedPages)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, []int{0, 1}, src.fetched)
}

func TestExtract_EmptyPagesStillCount(t *testing.T) {
	src := &pages{texts: []*engine.StructuredText{page(), page()}}

	res, err := Extract(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, "\n\n\f\n\n", res.Text)
	assert.Equal(t, 2, res.ExtractedPages)
}

func TestExtract_NoPages(t *testing.T) {
	res, err := Extract(context.Background(), &pages{}, 0)
	require.NoError(t, err)
	assert.Equal(t, &Result{}, res)
}

func TestExtract_PageFailureAborts(t *testing.T) {
	boom := errors.New("cmap fetch failed")
	src := &pages{
		texts: []*engine.StructuredText{page(), page(), page()},
		fail:  map[int]error{1: boom},
	}

	res, err := Extract(context.Background(), src, 0)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{0, 1}, src.fetched)
}

func TestExtract_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Extract(ctx, &pages{texts: []*engine.StructuredText{page()}}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
