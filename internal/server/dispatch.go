package server

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/akashicode/pdfworker/internal/engine"
	"github.com/akashicode/pdfworker/internal/fulltext"
	"github.com/akashicode/pdfworker/internal/logger"
	"github.com/akashicode/pdfworker/internal/reader"
	"github.com/akashicode/pdfworker/internal/recognizer"
	"github.com/akashicode/pdfworker/internal/resource"
	"github.com/akashicode/pdfworker/internal/rpc"
)

// Inbound actions.
const (
	ActionGetFulltext       = "getFulltext"
	ActionGetRecognizerData = "getRecognizerData"
)

// FulltextRequest is the payload of getFulltext. Buf travels as base64.
type FulltextRequest struct {
	Buf      []byte          `json:"buf"`
	Password string          `json:"password"`
	MaxPages json.RawMessage `json:"maxPages,omitempty"`
}

// RecognizerRequest is the payload of getRecognizerData.
type RecognizerRequest struct {
	Buf      []byte `json:"buf"`
	Password string `json:"password"`
}

// Dispatcher runs the two document operations. Every call opens its own
// session and closes it before returning.
type Dispatcher struct {
	Engine engine.Engine
}

// GetFulltext extracts the text of the first maxPages pages (all pages when
// maxPages is not positive).
func (d *Dispatcher) GetFulltext(ctx context.Context, cache *resource.Cache, data []byte, password string, maxPages int) (*fulltext.Result, error) {
	s, err := reader.Open(ctx, d.Engine, cache, data, password)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return fulltext.Extract(ctx, s, maxPages)
}

// GetRecognizerData exports the recognizer features of the leading pages.
func (d *Dispatcher) GetRecognizerData(ctx context.Context, cache *resource.Cache, data []byte, password string) (*recognizer.Result, error) {
	s, err := reader.Open(ctx, d.Engine, cache, data, password)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return recognizer.Extract(ctx, s)
}

// Handle answers one request message. Failures become an error object on
// the response; Handle itself never fails.
func (d *Dispatcher) Handle(ctx context.Context, cache *resource.Cache, msg rpc.Message) rpc.Message {
	log := logger.WithRequest("dispatcher", msg.ID, msg.Action)
	start := time.Now()

	resp := rpc.Message{ResponseID: msg.ID}
	result, err := d.run(ctx, cache, msg)
	if err == nil {
		resp.Data, err = json.Marshal(result)
	}
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("request failed")
		resp.Error = errorObject(err)
		return resp
	}

	log.Debug().Dur("elapsed", time.Since(start)).Msg("request completed")
	return resp
}

func (d *Dispatcher) run(ctx context.Context, cache *resource.Cache, msg rpc.Message) (any, error) {
	switch msg.Action {
	case ActionGetFulltext:
		var req FulltextRequest
		if err := decode(msg, &req); err != nil {
			return nil, err
		}
		return d.GetFulltext(ctx, cache, req.Buf, req.Password, PageLimit(req.MaxPages))
	case ActionGetRecognizerData:
		var req RecognizerRequest
		if err := decode(msg, &req); err != nil {
			return nil, err
		}
		return d.GetRecognizerData(ctx, cache, req.Buf, req.Password)
	default:
		return nil, errors.WithStack(&UnknownActionError{Action: msg.Action})
	}
}

func decode(msg rpc.Message, v any) error {
	if len(msg.Data) == 0 {
		return errors.WithStack(&RequestError{Action: msg.Action, Err: errors.New("missing data")})
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return errors.WithStack(&RequestError{Action: msg.Action, Err: err})
	}
	return nil
}

// PageLimit reads a maxPages value. Anything but an integral number yields
// 0, meaning all pages.
func PageLimit(raw json.RawMessage) int {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	if math.IsInf(v, 0) || math.IsNaN(v) || v != math.Trunc(v) {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < 0 {
		return 0
	}
	return int(v)
}
