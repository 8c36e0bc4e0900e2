// Package envelope defines the JSON wrappers used by the contacts API. Every response except the
// contact list carries a success flag and either data, a message, or an error.
package envelope

import (
	"encoding/json"
	"errors"
)

// Envelope is the body of a response from the contacts API.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// SuccessMessage returns a success envelope that carries a message instead of data.
func SuccessMessage(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

// Failure wraps an error in a failure envelope. The error is either a single message or a list
// of messages.
func Failure[E string | []string](err E) Envelope {
	return Envelope{Success: false, Error: err}
}

// Response is the decoding counterpart of Envelope, used by clients of the API.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// Errors returns the error messages of a failure response. A single message is returned as a
// list of one.
func (r Response) Errors() []string {
	if len(r.Error) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(r.Error, &single); err == nil {
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(r.Error, &list); err == nil {
		return list
	}
	return []string{string(r.Error)}
}

// DecodeData unmarshals the data of a success response into v.
func (r Response) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return errors.New("response carries no data")
	}
	return json.Unmarshal(r.Data, v)
}
