package api

import (
	"bytes"
	"encoding/json"
)

type PayloadKind int

const (
	// PayloadBare is a body used as-is.
	PayloadBare PayloadKind = iota
	// PayloadWrapped is a body whose payload sits under "data".
	PayloadWrapped
)

// Envelope is a response body with its payload located.
type Envelope struct {
	Kind    PayloadKind
	Message string
	Payload json.RawMessage
}

type wireEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ParseEnvelope locates the payload of body. An object with a non-null
// "data" member is unwrapped; anything else is its own payload.
func ParseEnvelope(body []byte) Envelope {
	trimmed := bytes.TrimSpace(body)
	env := Envelope{Kind: PayloadBare, Payload: json.RawMessage(trimmed)}

	if len(trimmed) == 0 || trimmed[0] != '{' {
		return env
	}

	var w wireEnvelope
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return env
	}
	env.Message = w.Message

	data := bytes.TrimSpace(w.Data)
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		env.Kind = PayloadWrapped
		env.Payload = json.RawMessage(data)
	}
	return env
}
