// Package engine defines the contract between the extraction pipelines and
// the PDF engine that parses documents, together with the structured text
// model the engine produces. PDF implements the contract on top of pdfcpu and
// ledongthuc/pdf.
package engine

import (
	"context"
)

// Engine opens documents.
type Engine interface {
	// Open prepares a document from raw bytes. No parsing happens until the
	// load phases are driven on the returned Document.
	Open(data []byte, password string) (Document, error)
}

// Document is an opened PDF. The load phases must be called in order:
// CheckHeader, ParseStartXRef, then Parse (at most twice, the second time
// in recovery mode). The remaining methods are valid after a successful Parse.
type Document interface {
	CheckHeader() error
	ParseStartXRef() error
	Parse(recovery bool) error

	NumPages() int
	Fingerprint() string
	// Info returns the raw document information. Values are strings except
	// for feature flags (bool), the "Custom" sub-map and name values.
	Info() map[string]any

	Page(ctx context.Context, index int) (PageInfo, error)
	// PageData returns the structured text of the page at the zero-based
	// index. Resource requests raised while decoding fonts go to h.
	PageData(ctx context.Context, index int, h ResourceHandler) (*StructuredText, error)

	Close() error
}

// RequestKind names a resource request raised by the engine.
type RequestKind string

const (
	// RequestBuiltInCMap asks for a predefined character map by name.
	RequestBuiltInCMap RequestKind = "FetchBuiltInCMap"
	// RequestStandardFontData asks for a standard font program by filename.
	RequestStandardFontData RequestKind = "FetchStandardFontData"
)

// Request is a resource request from the engine to its host.
type Request struct {
	Kind RequestKind
	Name string
}

// ResourceHandler answers engine resource requests. A nil payload with a nil
// error means the resource is unavailable and the engine degrades without it.
type ResourceHandler interface {
	Handle(ctx context.Context, req Request) ([]byte, error)
}

// ResourceHandlerFunc adapts a function to ResourceHandler.
type ResourceHandlerFunc func(ctx context.Context, req Request) ([]byte, error)

// Handle calls f.
func (f ResourceHandlerFunc) Handle(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// PageInfo is the page geometry.
type PageInfo struct {
	// View is the visible area [x0, y0, x1, y1]: the crop box clipped to the
	// media box.
	View   [4]float64 `json:"view"`
	Rotate int        `json:"rotate"`
}

// Width returns the third view box component.
func (p PageInfo) Width() float64 { return p.View[2] }

// Height returns the fourth view box component.
func (p PageInfo) Height() float64 { return p.View[3] }
