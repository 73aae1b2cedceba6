package rpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// maxMessageSize bounds a single newline-delimited message (documents travel
// inline as base64).
const maxMessageSize = 512 << 20

// ErrMalformedMessage marks an input line that is not a valid message. The
// stream stays usable after it.
var ErrMalformedMessage = errors.New("rpc: malformed message")

// Stream is a Conn speaking newline-delimited JSON, used for stdio workers.
type Stream struct {
	scanner *bufio.Scanner

	mu  sync.Mutex
	enc *json.Encoder
}

// NewStream reads messages from r and writes them to w.
func NewStream(r io.Reader, w io.Writer) *Stream {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Stream{scanner: sc, enc: enc}
}

// ReadMessage blocks until the next message arrives. Blank lines are skipped.
// It returns io.EOF when the input is exhausted.
func (s *Stream) ReadMessage() (Message, error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		return msg, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Message{}, fmt.Errorf("rpc: read message: %w", err)
	}
	return Message{}, io.EOF
}

// WriteMessage encodes msg as one line. Safe for concurrent use.
func (s *Stream) WriteMessage(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(msg); err != nil {
		return fmt.Errorf("rpc: write message: %w", err)
	}
	return nil
}
