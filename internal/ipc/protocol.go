package ipc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is the outcome of a control request.
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusError     Status = "ERROR"
	StatusException Status = "EXCEPTION"
)

// Selector kinds.
const (
	KindScreen = "screen"
	KindGroup  = "group"
	KindWindow = "window"
	KindLayout = "layout"
	KindBar    = "bar"
)

// Selector is one step of an object path: a kind plus a key. A nil key
// means "the current one". Keys are strings for groups and bars, integers
// for screens, windows and layouts.
//
// On the wire a selector is a two element array: ["group", "a"],
// ["window", 4194313], ["screen", null].
type Selector struct {
	Kind string
	Key  any
}

// Current reports whether the selector names the current object.
func (s Selector) Current() bool { return s.Key == nil }

// Int returns the key as an integer.
func (s Selector) Int() (int, bool) {
	switch v := s.Key.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int64(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// Name returns the key as a string.
func (s Selector) Name() (string, bool) {
	v, ok := s.Key.(string)
	return v, ok
}

func (s Selector) String() string {
	if s.Key == nil {
		return s.Kind
	}
	return fmt.Sprintf("%s[%v]", s.Kind, s.Key)
}

// MarshalJSON encodes the selector as [kind, key].
func (s Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Kind, s.Key})
}

// UnmarshalJSON decodes [kind, key]; integral numbers become int64.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("selector must be a [kind, key] pair: %w", err)
	}
	if len(parts) == 0 || len(parts) > 2 {
		return fmt.Errorf("selector must be a [kind, key] pair, got %d elements", len(parts))
	}
	var kind string
	if err := json.Unmarshal(parts[0], &kind); err != nil {
		return fmt.Errorf("selector kind: %w", err)
	}
	s.Kind = kind
	s.Key = nil
	if len(parts) == 1 {
		return nil
	}

	raw := bytes.TrimSpace(parts[1])
	switch {
	case bytes.Equal(raw, []byte("null")):
	case len(raw) > 0 && raw[0] == '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return fmt.Errorf("selector key: %w", err)
		}
		s.Key = name
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("selector key: %w", err)
		}
		i, err := n.Int64()
		if err != nil {
			return fmt.Errorf("selector key %s is not an integer", n)
		}
		s.Key = i
	}
	return nil
}

// Request addresses one command on the object reached through Selectors.
type Request struct {
	Selectors []Selector     `json:"selectors"`
	Name      string         `json:"name"`
	Args      []any          `json:"args,omitempty"`
	Kwargs    map[string]any `json:"kwargs,omitempty"`
}

// Response is the single reply sent for every request.
type Response struct {
	Status Status          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful response with optional data.
func NewSuccessResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = b
	}
	return &Response{Status: StatusSuccess, Data: dataBytes}, nil
}

// NewErrorResponse reports a user-facing failure.
func NewErrorResponse(msg string) *Response {
	return &Response{Status: StatusError, Error: msg}
}

// NewExceptionResponse reports an internal failure with its trace.
func NewExceptionResponse(trace string) *Response {
	return &Response{Status: StatusException, Error: trace}
}

// ParseRequest parses a request line.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("request has no command name")
	}
	req.Args = normalizeNumbers(req.Args).([]any)
	if req.Kwargs != nil {
		req.Kwargs = normalizeNumbers(req.Kwargs).(map[string]any)
	}
	return &req, nil
}

// normalizeNumbers turns json.Number values into int64 or float64.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		if x == nil {
			return []any(nil)
		}
		for i := range x {
			x[i] = normalizeNumbers(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeNumbers(x[k])
		}
		return x
	}
	return v
}

// Marshal converts a response to JSON bytes.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Decode unmarshals the response data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response carries no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}
