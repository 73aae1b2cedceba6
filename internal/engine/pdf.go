package engine

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
)

func init() {
	// Keep pdfcpu from creating a configuration directory on first use.
	model.ConfigPath = "disable"
}

const (
	headerSearch = 1024
	trailerScan  = 1024
)

// letter is the default media box.
var letter = [4]float64{0, 0, 612, 792}

var versionRe = regexp.MustCompile(`^[0-9]+\.[0-9]+`)

// ErrNoStartXRef is the cause of an XRefParseError when the trailer has no
// usable startxref offset.
var ErrNoStartXRef = errors.New("missing startxref")

// PDF is the Engine backed by pdfcpu (structure, validation, encryption)
// and ledongthuc/pdf (objects and positioned glyphs).
type PDF struct{}

// NewPDF returns the default engine.
func NewPDF() *PDF {
	return &PDF{}
}

// Open implements Engine.
func (*PDF) Open(data []byte, password string) (Document, error) {
	if len(data) == 0 {
		return nil, errors.WithStack(&InvalidPDFError{Reason: "empty document"})
	}
	return &pdfDocument{data: data, password: password}, nil
}

type pdfDocument struct {
	data     []byte
	password string

	version   string
	startXRef int64

	reader   *pdf.Reader
	numPages int
}

// CheckHeader looks for the %PDF- marker near the start of the data.
func (d *pdfDocument) CheckHeader() error {
	head := d.data[:min(len(d.data), headerSearch)]
	i := bytes.Index(head, []byte("%PDF-"))
	if i < 0 {
		return errors.WithStack(&InvalidPDFError{Reason: "missing %PDF- header"})
	}
	if v := versionRe.Find(d.data[i+5:min(len(d.data), i+5+12)]); v != nil {
		d.version = string(v)
	}
	return nil
}

// ParseStartXRef reads the startxref offset from the end of the file. A
// missing or bad offset is left to the recovery parse.
func (d *pdfDocument) ParseStartXRef() error {
	tail := d.data[max(0, len(d.data)-trailerScan):]
	i := bytes.LastIndex(tail, []byte("startxref"))
	if i < 0 {
		return nil
	}
	fields := bytes.Fields(tail[i+len("startxref"):])
	if len(fields) == 0 {
		return nil
	}
	if off, err := strconv.ParseInt(string(fields[0]), 10, 64); err == nil && off >= 0 && off < int64(len(d.data)) {
		d.startXRef = off
	}
	return nil
}

// Parse reads and validates the document structure with pdfcpu, then opens
// it for object access. In recovery mode validation is relaxed and pdfcpu
// failures are tolerated as long as the object reader can open the file.
func (d *pdfDocument) Parse(recovery bool) error {
	if !recovery && d.startXRef == 0 {
		return errors.WithStack(&XRefParseError{Op: "startxref", Err: ErrNoStartXRef})
	}

	conf := model.NewDefaultConfiguration()
	conf.UserPW = d.password
	conf.OwnerPW = d.password
	conf.ValidationMode = model.ValidationStrict
	if recovery {
		conf.ValidationMode = model.ValidationRelaxed
	}

	pageCount := 0
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(d.data), conf)
	switch {
	case err == nil:
		pageCount = ctx.PageCount
	case isPasswordErr(err):
		return d.passwordError(err)
	case !recovery:
		return errors.WithStack(&XRefParseError{Op: "read", Err: err})
	}

	r, err := d.openReader()
	if err != nil {
		if isPasswordErr(err) {
			return d.passwordError(err)
		}
		if !recovery {
			return errors.WithStack(&XRefParseError{Op: "open", Err: err})
		}
		return errors.Wrap(err, "recovery parse")
	}
	d.reader = r
	d.numPages = pageCount
	if d.numPages == 0 {
		d.numPages = r.NumPage()
	}
	return nil
}

// openReader opens the object reader. It panics on some malformed input.
func (d *pdfDocument) openReader() (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	tried := false
	pw := func() string {
		if tried {
			return ""
		}
		tried = true
		return d.password
	}
	return pdf.NewReaderEncrypted(bytes.NewReader(d.data), int64(len(d.data)), pw)
}

func (d *pdfDocument) passwordError(err error) error {
	code := IncorrectPassword
	if d.password == "" {
		code = NeedPassword
	}
	return errors.WithStack(&PasswordError{Code: code, Err: err})
}

func isPasswordErr(err error) bool {
	return errors.Is(err, pdf.ErrInvalidPassword) || strings.Contains(strings.ToLower(err.Error()), "password")
}

func (d *pdfDocument) NumPages() int {
	return d.numPages
}

func (d *pdfDocument) page(index int) (pdf.Page, error) {
	if d.reader == nil {
		return pdf.Page{}, errors.WithStack(ErrNotParsed)
	}
	if index < 0 || index >= d.numPages {
		return pdf.Page{}, errors.WithStack(&PageRangeError{Index: index, NumPages: d.numPages})
	}
	p := d.reader.Page(index + 1)
	if p.V.IsNull() {
		return pdf.Page{}, errors.WithStack(&PageRangeError{Index: index, NumPages: d.numPages})
	}
	return p, nil
}

// Page implements Document.
func (d *pdfDocument) Page(_ context.Context, index int) (_ PageInfo, err error) {
	defer guard(index, &err)
	p, err := d.page(index)
	if err != nil {
		return PageInfo{}, err
	}
	media, ok := boxOf(inherited(p.V, "MediaBox"))
	if !ok {
		media = letter
	}
	view := media
	if crop, ok := boxOf(inherited(p.V, "CropBox")); ok {
		view = [4]float64{
			math.Max(media[0], crop[0]),
			math.Max(media[1], crop[1]),
			math.Min(media[2], crop[2]),
			math.Min(media[3], crop[3]),
		}
		if view[0] >= view[2] || view[1] >= view[3] {
			view = media
		}
	}
	rotate := int(inherited(p.V, "Rotate").Int64()) % 360
	if rotate < 0 {
		rotate += 360
	}
	return PageInfo{View: view, Rotate: rotate}, nil
}

// PageData implements Document.
func (d *pdfDocument) PageData(ctx context.Context, index int, h ResourceHandler) (_ *StructuredText, err error) {
	defer guard(index, &err)
	p, err := d.page(index)
	if err != nil {
		return nil, err
	}

	styles := make(map[string]fontStyle)
	for _, name := range p.Fonts() {
		font := p.Font(name)
		base := stripSubset(font.BaseFont())
		if _, ok := styles[base]; ok {
			continue
		}
		style, err := resolveFont(ctx, font.V, h)
		if err != nil {
			return nil, err
		}
		styles[base] = style
	}

	texts := p.Content().Text
	glyphs := make([]glyph, 0, len(texts))
	for _, t := range texts {
		glyphs = append(glyphs, glyph{
			text:  t.S,
			font:  t.Font,
			size:  t.FontSize,
			x:     t.X,
			y:     t.Y,
			width: t.W,
			style: styles[t.Font],
		})
	}
	return layout(glyphs), nil
}

// guard turns a panic of the object reader into a ContentError. The reader
// panics on malformed objects and content streams.
func guard(index int, err *error) {
	if r := recover(); r != nil {
		*err = errors.WithStack(&ContentError{Page: index, Cause: fmt.Sprint(r)})
	}
}

func (d *pdfDocument) Close() error {
	d.reader = nil
	d.data = nil
	return nil
}

// inherited looks a page attribute up through the page tree.
func inherited(v pdf.Value, key string) pdf.Value {
	for depth := 0; !v.IsNull() && depth < 64; depth++ {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

// boxOf normalizes a rectangle array to [x0, y0, x1, y1] with x0 <= x1 and
// y0 <= y1.
func boxOf(v pdf.Value) ([4]float64, bool) {
	if v.Kind() != pdf.Array || v.Len() != 4 {
		return [4]float64{}, false
	}
	var b [4]float64
	for i := range b {
		b[i] = v.Index(i).Float64()
	}
	if b[0] > b[2] {
		b[0], b[2] = b[2], b[0]
	}
	if b[1] > b[3] {
		b[1], b[3] = b[3], b[1]
	}
	if b[0] == b[2] || b[1] == b[3] {
		return [4]float64{}, false
	}
	return b, true
}
