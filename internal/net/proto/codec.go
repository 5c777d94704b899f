package proto

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Envelope is the decoded frame header: the message type tag plus the raw
// payload bytes, still in the codec's encoding.
type Envelope struct {
	T string
	P []byte
}

// Codec turns typed messages into wire frames and back. Both ends of a
// session must use the same codec; the choice is a deployment setting, not
// negotiated.
type Codec interface {
	Name() string
	Encode(msgType string, payload any) ([]byte, error)
	Decode(data []byte) (Envelope, error)
	Unmarshal(raw []byte, out any) error
}

// DecodePayload decodes an envelope's payload into a concrete message type.
func DecodePayload[T any](c Codec, env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := c.Unmarshal(env.P, &out)
	return out, err
}

// JSONCodec frames messages as JSON text, the format browser clients speak.
type JSONCodec struct{}

type jsonEnvelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(msgType string, payload any) ([]byte, error) {
	if msgType == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msgType, err)
	}
	return json.Marshal(jsonEnvelope{T: msgType, P: raw})
}

func (JSONCodec) Decode(data []byte) (Envelope, error) {
	if len(data) == 0 {
		return Envelope{}, fmt.Errorf("decode: empty frame")
	}
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	if env.T == "" {
		return Envelope{}, fmt.Errorf("decode: frame missing type tag")
	}
	return Envelope{T: env.T, P: env.P}, nil
}

func (JSONCodec) Unmarshal(raw []byte, out any) error {
	return json.Unmarshal(raw, out)
}

// MsgpackCodec frames messages as msgpack binary, for deployments that want
// smaller snapshots than JSON text frames.
type MsgpackCodec struct{}

type msgpackEnvelope struct {
	T string             `msgpack:"t"`
	P msgpack.RawMessage `msgpack:"p"`
}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Encode(msgType string, payload any) ([]byte, error) {
	if msgType == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	raw, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msgType, err)
	}
	return msgpack.Marshal(msgpackEnvelope{T: msgType, P: raw})
}

func (MsgpackCodec) Decode(data []byte) (Envelope, error) {
	if len(data) == 0 {
		return Envelope{}, fmt.Errorf("decode: empty frame")
	}
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	if env.T == "" {
		return Envelope{}, fmt.Errorf("decode: frame missing type tag")
	}
	return Envelope{T: env.T, P: env.P}, nil
}

func (MsgpackCodec) Unmarshal(raw []byte, out any) error {
	return msgpack.Unmarshal(raw, out)
}

// CodecByName resolves a configured codec name. JSON is the default.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
