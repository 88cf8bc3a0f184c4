package models

import (
	"encoding/json"
	"fmt"
)

// Envelope is the uniform response wrapper used by the trading backend.
// Absence of success:true is treated as failure regardless of HTTP status.
type Envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// DecodeEnvelope parses a raw response body, validates the success flag, and
// unmarshals the payload into out. out may be nil when no payload is expected.
func DecodeEnvelope(body []byte, out interface{}) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("malformed response envelope: %w", err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = "backend reported failure"
		}
		return fmt.Errorf("backend error: %s", msg)
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("backend response missing data payload")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response payload: %w", err)
	}
	return nil
}
