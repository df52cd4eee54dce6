package partial

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// Entry is one recorded exchange with the engine.
type Entry struct {
	Request Request         `json:"request"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *EvalError      `json:"error,omitempty"`
}

// Recording is a set of recorded exchanges.
type Recording struct {
	Entries []Entry `json:"entries"`
}

// FileEvaluator serves recorded compile responses.
//
// The file holds either a Recording, whose entries are matched by request
// fingerprint, or a single compile API response body that is returned for
// every request.
//
// Every call decodes a fresh query set, so callers may rewrite the result
// in place.
type FileEvaluator struct {
	single  []byte
	entries map[string]Entry
}

// LoadFile reads a recording or response file.
func LoadFile(path string) (*FileEvaluator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	fe, err := ParseRecording(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fe, nil
}

// ParseRecording builds a FileEvaluator from file contents.
func ParseRecording(data []byte) (*FileEvaluator, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse recording: %w", err)
	}

	if _, ok := envelope["entries"]; !ok {
		if _, err := decodeResponse(data); err != nil {
			return nil, err
		}
		return &FileEvaluator{single: data}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec Recording
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("parse recording: %w", err)
	}

	fe := &FileEvaluator{entries: make(map[string]Entry, len(rec.Entries))}
	for i, entry := range rec.Entries {
		key, err := entry.Request.Fingerprint()
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		fe.entries[key] = entry
	}
	return fe, nil
}

// Partial returns the recorded response for req.
func (f *FileEvaluator) Partial(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.single != nil {
		return decodeResponse(f.single)
	}

	key, err := req.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint request: %w", err)
	}
	entry, ok := f.entries[key]
	if !ok {
		return nil, &EvalError{
			Status:  http.StatusNotFound,
			Code:    "not_recorded",
			Message: fmt.Sprintf("no recorded response for query %q", req.Query),
		}
	}
	if entry.Error != nil {
		return nil, entry.Error
	}

	// Entry.Result holds the "result" member of a compile response.
	body, err := json.Marshal(map[string]json.RawMessage{"result": entry.Result})
	if err != nil {
		return nil, err
	}
	return decodeResponse(body)
}
