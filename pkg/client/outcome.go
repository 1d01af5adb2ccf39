package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Outcome is the three-way result of a backend call.
type Outcome int

const (
	// Success: 2xx and not flagged success=false.
	Success Outcome = iota
	// BusinessFailure: the backend answered and rejected the operation.
	BusinessFailure
	// NetworkFailure: the backend could not be reached or a gateway in front
	// of it failed.
	NetworkFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case BusinessFailure:
		return "business_failure"
	case NetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome    Outcome
	StatusCode int
	Message    string
	Data       json.RawMessage
	Err        error
}

// NotFound reports a business failure caused by a missing record.
func (r Result) NotFound() bool {
	return r.Outcome == BusinessFailure && r.StatusCode == http.StatusNotFound
}

// ID returns the id of the record carried in Data, if any.
func (r Result) ID() string {
	return ExtractID(r.Data)
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Classify turns a response (or transport error) into a Result.
func Classify(resp *Response, err error) Result {
	if err != nil {
		if errors.Is(err, ErrEncodeBody) {
			return Result{Outcome: BusinessFailure, Message: "invalid request body", Err: err}
		}
		return Result{Outcome: NetworkFailure, Err: err}
	}

	status := resp.StatusCode
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return Result{Outcome: NetworkFailure, StatusCode: status, Message: http.StatusText(status)}
	}

	if status < 200 || status > 299 {
		return Result{Outcome: BusinessFailure, StatusCode: status, Message: GetErrorMessage(resp)}
	}

	data, env := unwrap(resp.Body)
	if env != nil && env.Success != nil && !*env.Success {
		return Result{Outcome: BusinessFailure, StatusCode: status, Message: env.Message}
	}

	return Result{Outcome: Success, StatusCode: status, Data: data}
}

// DecodeData returns the payload of an envelope, or the body itself when the
// backend answered with a bare object or array.
func DecodeData(body []byte) json.RawMessage {
	data, _ := unwrap(body)
	return data
}

func unwrap(body []byte) (json.RawMessage, *envelope) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return json.RawMessage(trimmed), nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return json.RawMessage(trimmed), nil
	}
	if env.Success == nil && env.Data == nil {
		return json.RawMessage(trimmed), nil
	}
	if isNull(env.Data) {
		return nil, &env
	}
	return env.Data, &env
}

// ExtractID reads "id" or "_id" from a JSON object. Numeric ids are returned
// in their decimal form.
func ExtractID(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"id", "_id"} {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}
