// Package enginetest provides an in-memory engine.Engine for tests, plus
// helpers to build structured text.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/akashicode/pdfworker/internal/engine"
)

// Page describes one page of a fake document.
type Page struct {
	Info engine.PageInfo
	Text *engine.StructuredText
	// Requests are sent to the resource handler before Text is returned.
	Requests []engine.Request
	// Err fails PageData for this page.
	Err error
}

// Spec describes the documents an Engine opens.
type Spec struct {
	Pages       []Page
	Fingerprint string
	Info        map[string]any

	HeaderErr    error
	StartXRefErr error
	// ParseErrs is consumed one entry per Parse call; nil entries succeed.
	ParseErrs []error
	// Password, when set, is required to parse.
	Password string
}

// Engine opens a fresh Document from Spec on every Open.
type Engine struct {
	Spec    Spec
	OpenErr error

	mu     sync.Mutex
	opened []*Document
}

// Open implements engine.Engine.
func (e *Engine) Open(data []byte, password string) (engine.Document, error) {
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	d := &Document{spec: e.Spec, data: data, password: password}
	e.mu.Lock()
	e.opened = append(e.opened, d)
	e.mu.Unlock()
	return d, nil
}

// Opened returns the documents opened so far.
func (e *Engine) Opened() []*Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Document(nil), e.opened...)
}

// Document is a fake engine.Document.
type Document struct {
	spec     Spec
	data     []byte
	password string

	mu        sync.Mutex
	parses    []bool
	responses [][]byte
	closed    bool
}

// Password returns the password the document was opened with.
func (d *Document) Password() string { return d.password }

// Data returns the bytes the document was opened with.
func (d *Document) Data() []byte { return d.data }

// Parses returns the recovery flag of every Parse call.
func (d *Document) Parses() []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]bool(nil), d.parses...)
}

// Responses returns the payloads the resource handler answered with.
func (d *Document) Responses() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.responses...)
}

// Closed reports whether Close was called.
func (d *Document) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Document) CheckHeader() error    { return d.spec.HeaderErr }
func (d *Document) ParseStartXRef() error { return d.spec.StartXRefErr }

// Parse implements engine.Document.
func (d *Document) Parse(recovery bool) error {
	d.mu.Lock()
	n := len(d.parses)
	d.parses = append(d.parses, recovery)
	d.mu.Unlock()

	if d.spec.Password != "" && d.password != d.spec.Password {
		code := engine.IncorrectPassword
		if d.password == "" {
			code = engine.NeedPassword
		}
		return &engine.PasswordError{Code: code}
	}
	if n < len(d.spec.ParseErrs) {
		return d.spec.ParseErrs[n]
	}
	return nil
}

func (d *Document) NumPages() int        { return len(d.spec.Pages) }
func (d *Document) Fingerprint() string  { return d.spec.Fingerprint }
func (d *Document) Info() map[string]any { return d.spec.Info }

func (d *Document) page(index int) (Page, error) {
	if index < 0 || index >= len(d.spec.Pages) {
		return Page{}, &engine.PageRangeError{Index: index, NumPages: len(d.spec.Pages)}
	}
	return d.spec.Pages[index], nil
}

// Page implements engine.Document.
func (d *Document) Page(_ context.Context, index int) (engine.PageInfo, error) {
	p, err := d.page(index)
	if err != nil {
		return engine.PageInfo{}, err
	}
	return p.Info, nil
}

// PageData implements engine.Document.
func (d *Document) PageData(ctx context.Context, index int, h engine.ResourceHandler) (*engine.StructuredText, error) {
	p, err := d.page(index)
	if err != nil {
		return nil, err
	}
	for _, req := range p.Requests {
		if h == nil {
			return nil, fmt.Errorf("no resource handler for %s %q", req.Kind, req.Name)
		}
		data, err := h.Handle(ctx, req)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.responses = append(d.responses, data)
		d.mu.Unlock()
	}
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Text == nil {
		return &engine.StructuredText{}, nil
	}
	return p.Text, nil
}

// Close implements engine.Document.
func (d *Document) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
