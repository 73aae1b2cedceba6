// Package fulltext turns structured page text into one reading-order string.
package fulltext

import (
	"context"
	"fmt"
	"strings"

	"github.com/akashicode/pdfworker/internal/engine"
)

const (
	pageBreak = "\n\n"
	formFeed  = "\f"
)

// Source is the part of a reader.Session the extractor needs.
type Source interface {
	NumPages() int
	FetchPage(ctx context.Context, index int) (*engine.StructuredText, error)
}

// Result is the extracted text.
type Result struct {
	Text           string `json:"text" yaml:"text"`
	ExtractedPages int    `json:"extractedPages" yaml:"extractedPages"`
	TotalPages     int    `json:"totalPages" yaml:"totalPages"`
}

// PageCount clamps a page limit to the document. Non-positive limits mean
// all pages.
func PageCount(limit, total int) int {
	if limit <= 0 || limit > total {
		return total
	}
	return limit
}

// Extract linearizes the first pageLimit pages of src. Words are joined by
// their space-after flag, lines by one space unless hyphenated, paragraphs
// by a newline, and every page is followed by two newlines plus a form feed
// when another page follows. A page failure aborts the extraction.
func Extract(ctx context.Context, src Source, pageLimit int) (*Result, error) {
	total := src.NumPages()
	count := PageCount(pageLimit, total)

	var parts []string
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := src.FetchPage(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		parts = appendPage(parts, st)
		parts = append(parts, pageBreak)
		if i != count-1 {
			parts = append(parts, formFeed)
		}
	}

	return &Result{
		Text:           strings.Join(parts, ""),
		ExtractedPages: count,
		TotalPages:     total,
	}, nil
}

func appendPage(parts []string, st *engine.StructuredText) []string {
	for pi, para := range st.Paragraphs {
		for li, line := range para.Lines {
			for _, word := range line.Words {
				for _, c := range word.Chars {
					parts = append(parts, c.C)
				}
				if word.SpaceAfter {
					parts = append(parts, " ")
				}
			}
			if li == len(para.Lines)-1 {
				continue
			}
			if line.Hyphenated {
				// drop the hyphen so the word joins up
				if len(parts) > 0 {
					parts = parts[:len(parts)-1]
				}
			} else {
				parts = append(parts, " ")
			}
		}
		if pi != len(st.Paragraphs)-1 {
			parts = append(parts, "\n")
		}
	}
	return parts
}
