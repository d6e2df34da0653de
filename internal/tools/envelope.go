package tools

import "encoding/json"

// Envelope is the uniform result shape every tool returns. It stays a
// typed value between the tool layer and the agent loop; JSON encoding
// happens only where the result crosses the model boundary.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK builds a success envelope.
func OK(data any, message string) Envelope {
	return Envelope{Success: true, Data: data, Message: message}
}

// Fail builds an error envelope.
func Fail(errMsg string) Envelope {
	return Envelope{Success: false, Error: errMsg}
}

// JSON serializes the envelope for model-visible tool output.
func (e Envelope) JSON() string {
	b, err := json.Marshal(e)
	if err != nil {
		// Envelope fields are plain data; marshal failure would mean a
		// handler put something unserializable in Data.
		return `{"success":false,"error":"internal serialization error"}`
	}
	return string(b)
}
