// Package reader opens PDF documents into sessions and fetches their pages.
package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xdg-go/stringprep"

	"github.com/akashicode/pdfworker/internal/engine"
	"github.com/akashicode/pdfworker/internal/logger"
	"github.com/akashicode/pdfworker/internal/resource"
)

const (
	// formatVersionKey holds the header version and is never exported.
	formatVersionKey = "PDFFormatVersion"
	// customKey holds the non-standard info entries.
	customKey = "Custom"
)

// ErrNilEngine is returned by Open without an engine.
var ErrNilEngine = errors.New("document engine is nil")

// Session is one opened document. It is not shared between requests.
type Session struct {
	doc   engine.Document
	cache *resource.Cache
	log   zerolog.Logger

	numPages    int
	fingerprint string
	metadata    map[string]string
}

// Open loads a document: header check, startxref scan, then parse. A
// cross-reference failure is retried once in recovery mode; any other
// failure is returned as is. Resource requests of the engine are answered
// from cache, which may be nil for documents that need none.
func Open(ctx context.Context, eng engine.Engine, cache *resource.Cache, data []byte, password string) (*Session, error) {
	if eng == nil {
		return nil, ErrNilEngine
	}
	log := logger.WithComponent("reader")

	doc, err := eng.Open(data, preparePassword(password))
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	if err := load(ctx, doc, log); err != nil {
		_ = doc.Close()
		return nil, err
	}

	s := &Session{
		doc:         doc,
		cache:       cache,
		log:         log,
		numPages:    doc.NumPages(),
		fingerprint: doc.Fingerprint(),
		metadata:    exportInfo(doc.Info()),
	}
	log.Debug().
		Int("pages", s.numPages).
		Str("fingerprint", s.fingerprint).
		Msg("document opened")
	return s, nil
}

func load(ctx context.Context, doc engine.Document, log zerolog.Logger) error {
	if err := doc.CheckHeader(); err != nil {
		return fmt.Errorf("check header: %w", err)
	}
	if err := doc.ParseStartXRef(); err != nil {
		return fmt.Errorf("parse startxref: %w", err)
	}

	err := doc.Parse(false)
	if err == nil {
		return nil
	}
	var xe *engine.XRefParseError
	if !errors.As(err, &xe) {
		return fmt.Errorf("parse document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Warn().Err(err).Msg("cross-reference parse failed, retrying in recovery mode")
	if err := doc.Parse(true); err != nil {
		return fmt.Errorf("parse document in recovery mode: %w", err)
	}
	return nil
}

// preparePassword applies SASLprep. Passwords it rejects are used verbatim.
func preparePassword(password string) string {
	if password == "" {
		return ""
	}
	prepared, err := stringprep.SASLprep.Prepare(password)
	if err != nil {
		return password
	}
	return prepared
}

// exportInfo flattens document info into string metadata. The format
// version is dropped, string entries of the Custom sub-map are merged into
// the top level, and non-string values are dropped.
func exportInfo(info map[string]any) map[string]string {
	out := make(map[string]string, len(info))
	for key, value := range info {
		if key == formatVersionKey || key == customKey {
			continue
		}
		if s, ok := value.(string); ok {
			out[key] = s
		}
	}
	custom, _ := info[customKey].(map[string]any)
	for key, value := range custom {
		if s, ok := value.(string); ok {
			out[key] = s
		}
	}
	return out
}

// NumPages returns the page count resolved at open.
func (s *Session) NumPages() int { return s.numPages }

// Fingerprint returns the document fingerprint resolved at open.
func (s *Session) Fingerprint() string { return s.fingerprint }

// Metadata returns a copy of the exported document info.
func (s *Session) Metadata() map[string]string {
	out := make(map[string]string, len(s.metadata))
	for k, v := range s.metadata {
		out[k] = v
	}
	return out
}

// Page returns the geometry of the page at the zero-based index.
func (s *Session) Page(ctx context.Context, index int) (engine.PageInfo, error) {
	info, err := s.doc.Page(ctx, index)
	if err != nil {
		return engine.PageInfo{}, fmt.Errorf("get page %d: %w", index, err)
	}
	return info, nil
}

// FetchPage returns the structured text of the page at the zero-based index.
// Character map and standard font requests go through the resource cache;
// other requests get no payload.
func (s *Session) FetchPage(ctx context.Context, index int) (*engine.StructuredText, error) {
	st, err := s.doc.PageData(ctx, index, engine.ResourceHandlerFunc(s.handle))
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", index, err)
	}
	return st, nil
}

func (s *Session) handle(ctx context.Context, req engine.Request) ([]byte, error) {
	var kind resource.Kind
	switch req.Kind {
	case engine.RequestBuiltInCMap:
		kind = resource.KindCMap
	case engine.RequestStandardFontData:
		kind = resource.KindStandardFont
	default:
		return nil, nil
	}
	if s.cache == nil {
		return nil, nil
	}

	data, err := s.cache.Get(ctx, kind, req.Name)
	if errors.Is(err, resource.ErrNotFound) {
		s.log.Debug().Str("kind", string(kind)).Str("name", req.Name).Msg("resource not available")
		return nil, nil
	}
	return data, err
}

// Close releases the document.
func (s *Session) Close() error {
	return s.doc.Close()
}
