package engine

// StructuredText is the text of one page grouped into paragraphs.
type StructuredText struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Paragraph is a run of lines with regular spacing.
type Paragraph struct {
	Lines []Line `json:"lines"`
}

// Line holds words sharing a baseline. Hyphenated is set when the line ends
// with a hyphen that continues the word on the next line.
type Line struct {
	Words      []Word `json:"words"`
	Hyphenated bool   `json:"hyphenated"`
}

// Word is a run of characters without whitespace. Rect is
// [xMin, yMin, xMax, yMax] in page space with Y growing upwards.
type Word struct {
	Rect       [4]float64 `json:"rect"`
	SpaceAfter bool       `json:"spaceAfter"`
	Chars      []Char     `json:"chars"`
}

// Char is one decoded glyph.
type Char struct {
	// C is the glyph text as decoded from the content stream.
	C string `json:"c"`
	// U is C in Unicode normalization form KC.
	U        string  `json:"u"`
	FontName string  `json:"fontName"`
	FontSize float64 `json:"fontSize"`
	Baseline float64 `json:"baseline"`
	Rotation int     `json:"rotation"`
	Bold     bool    `json:"bold"`
	Italic   bool    `json:"italic"`
}
