package proto

import (
	"testing"

	"skydash/server/internal/sim"
)

func codecs() []Codec {
	return []Codec{JSONCodec{}, MsgpackCodec{}}
}

func TestCodecRoundTripsGameState(t *testing.T) {
	payload := GameStatePayload{
		Tick:       42,
		ServerTime: 1700000000000,
		Entities: []sim.EntityState{
			{ID: "a", Name: "Alice", Color: "#e74c3c", X: 1.5, Y: 0.5, Z: -3, Yaw: 0.7, Grounded: true, DashStacks: 2},
			{ID: "b", Name: "Bob", Color: "#3498db", Dashing: true, DashCooldown: 1.2},
		},
	}

	for _, c := range codecs() {
		data, err := c.Encode(TypeGameState, payload)
		if err != nil {
			t.Fatalf("%s encode: %v", c.Name(), err)
		}
		env, err := c.Decode(data)
		if err != nil {
			t.Fatalf("%s decode: %v", c.Name(), err)
		}
		if env.T != TypeGameState {
			t.Fatalf("%s type = %q, want %q", c.Name(), env.T, TypeGameState)
		}
		got, err := DecodePayload[GameStatePayload](c, env)
		if err != nil {
			t.Fatalf("%s payload: %v", c.Name(), err)
		}
		if got.Tick != payload.Tick || len(got.Entities) != 2 {
			t.Fatalf("%s round trip mangled payload: %+v", c.Name(), got)
		}
		if got.Entities[0] != payload.Entities[0] || got.Entities[1] != payload.Entities[1] {
			t.Fatalf("%s entity state changed in transit", c.Name())
		}
	}
}

func TestCodecRoundTripsInput(t *testing.T) {
	payload := InputPayload{Forward: true, Left: true, Jump: true, CameraYaw: 1.25}

	for _, c := range codecs() {
		data, err := c.Encode(TypeInput, payload)
		if err != nil {
			t.Fatalf("%s encode: %v", c.Name(), err)
		}
		env, err := c.Decode(data)
		if err != nil {
			t.Fatalf("%s decode: %v", c.Name(), err)
		}
		got, err := DecodePayload[InputPayload](c, env)
		if err != nil {
			t.Fatalf("%s payload: %v", c.Name(), err)
		}
		if got != payload {
			t.Fatalf("%s input = %+v, want %+v", c.Name(), got, payload)
		}
		in := got.Input()
		if !in.Forward || !in.Left || !in.Jump || in.CameraYaw != 1.25 {
			t.Fatalf("wire input converted badly: %+v", in)
		}
	}
}

func TestCodecRejectsMalformedFrames(t *testing.T) {
	for _, c := range codecs() {
		if _, err := c.Decode(nil); err == nil {
			t.Fatalf("%s accepted an empty frame", c.Name())
		}
		if _, err := c.Decode([]byte("\x00garbage")); err == nil {
			// JSON rejects the bytes outright; msgpack may decode them as a
			// non-envelope value and must still fail on the missing tag.
			t.Fatalf("%s accepted garbage", c.Name())
		}
	}
}

func TestCodecRejectsMissingTypeTag(t *testing.T) {
	c := JSONCodec{}
	if _, err := c.Decode([]byte(`{"p":{}}`)); err == nil {
		t.Fatalf("accepted a frame without a type tag")
	}
}

func TestCodecByName(t *testing.T) {
	cases := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: "json"},
		{name: "json", want: "json"},
		{name: "msgpack", want: "msgpack"},
		{name: "protobuf", wantErr: true},
	}
	for _, tc := range cases {
		c, err := CodecByName(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("CodecByName(%q) accepted unknown codec", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("CodecByName(%q): %v", tc.name, err)
		}
		if c.Name() != tc.want {
			t.Fatalf("CodecByName(%q) = %s, want %s", tc.name, c.Name(), tc.want)
		}
	}
}

func TestTypesTableMatchesMessages(t *testing.T) {
	types := Types()
	seen := make(map[string]bool, len(types))
	for _, typ := range types {
		if seen[typ] {
			t.Fatalf("duplicate type identifier %q", typ)
		}
		seen[typ] = true
	}
	// One identifier per field of the Messages enumeration.
	if len(types) != 10 {
		t.Fatalf("type table has %d entries, want 10", len(types))
	}
}
