package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sender is the part of rpc.Bridge a BridgeFetcher needs.
type Sender interface {
	Send(ctx context.Context, action string, payload any) (json.RawMessage, error)
}

// BridgeFetcher asks the remote host for resources. The action is the kind,
// the request data is the bare name, and the answer is a base64 JSON string.
type BridgeFetcher struct {
	Sender Sender
}

// Fetch implements Fetcher.
func (f BridgeFetcher) Fetch(ctx context.Context, kind Kind, name string) ([]byte, error) {
	raw, err := f.Sender.Send(ctx, string(kind), name)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, ErrNotFound
	}
	var data []byte
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

// DirFetcher reads resources from local directories.
type DirFetcher struct {
	CMapDir string
	FontDir string
}

// Fetch implements Fetcher. Character maps are looked up as the bare name and
// with a ".bcmap" suffix.
func (f DirFetcher) Fetch(_ context.Context, kind Kind, name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil, fmt.Errorf("invalid resource name %q", name)
	}

	var candidates []string
	switch kind {
	case KindCMap:
		if f.CMapDir == "" {
			return nil, ErrNotFound
		}
		candidates = []string{
			filepath.Join(f.CMapDir, name),
			filepath.Join(f.CMapDir, name+".bcmap"),
		}
	case KindStandardFont:
		if f.FontDir == "" {
			return nil, ErrNotFound
		}
		candidates = []string{filepath.Join(f.FontDir, name)}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
	}
	return nil, ErrNotFound
}

// Fallback tries each fetcher in order and moves on only when one reports
// ErrNotFound.
type Fallback []Fetcher

// Fetch implements Fetcher.
func (fb Fallback) Fetch(ctx context.Context, kind Kind, name string) ([]byte, error) {
	for _, f := range fb {
		data, err := f.Fetch(ctx, kind, name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}
