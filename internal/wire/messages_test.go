package wire

import (
	"bytes"
	"reflect"
	"testing"
)

func TestResponseRoundTrip(t *testing.T) {
	cases := []*Response{
		{Kind: ResponseNone},
		{Kind: ResponseFile, File: &ProtoFile{Filename: "x.bin", Data: []byte{1, 2, 3}}},
		{Kind: ResponsePresence, Presence: &Presence{Presence: "idle"}},
		{Kind: ResponseSettings, Settings: &Settings{ChannelID: 42, CommandPrefix: "~", CycleTime: -5, PresenceEnabled: true}},
		{
			Kind: ResponseEmbed,
			Embed: &EmbedContent{
				Title:       "T",
				Description: "D",
				Author:      "A",
				Color:       0xFF00FF,
				Snapshot:    &ProtoFile{Filename: "s.png", Data: []byte{9, 9}},
				TextField: []TextField{
					{Title: "f1", Text: "v1", Inline: true},
					{Title: "f2", Text: "v2"},
				},
			},
		},
	}

	for i, want := range cases {
		data := want.Marshal()
		got := &Response{}
		if err := got.Unmarshal(data); err != nil {
			t.Fatalf("case %d: unmarshal: %v", i, err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("case %d: round trip mismatch\nwant %+v\ngot  %+v", i, want, got)
		}
	}
}

func TestResponseNoneIsNoopNotError(t *testing.T) {
	r := &Response{}
	data := r.Marshal()
	if len(data) != 0 {
		t.Fatalf("expected empty payload for no-op response, got %d bytes", len(data))
	}
	got := &Response{}
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("unmarshal empty payload: %v", err)
	}
	if got.Kind != ResponseNone {
		t.Fatalf("expected ResponseNone, got %v", got.Kind)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	cases := []*Request{
		{User: 7, Kind: RequestCommand, Command: "status"},
		{User: 7, Kind: RequestFile, File: &ProtoFile{Filename: "x.bin.zip.000", Data: []byte{1, 2}}},
	}
	for i, want := range cases {
		data := want.Marshal()
		got := &Request{}
		if err := got.Unmarshal(data); err != nil {
			t.Fatalf("case %d: unmarshal: %v", i, err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("case %d: round trip mismatch\nwant %+v\ngot  %+v", i, want, got)
		}
	}
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	// A field number this schema doesn't define should not break decoding
	// (forward compatibility, matching proto3 semantics).
	var b []byte
	b = appendString(b, 99, "from-the-future")
	b = appendString(b, 1, "my-title")

	e := &EmbedContent{}
	if err := e.unmarshal(b); err != nil {
		t.Fatalf("unmarshal with unknown field: %v", err)
	}
	if e.Title != "my-title" {
		t.Fatalf("expected title to survive unknown field, got %q", e.Title)
	}
}

func TestFramingRoundTripOrder(t *testing.T) {
	var buf bytes.Buffer
	msgs := []*Request{
		{User: 1, Kind: RequestCommand, Command: "a"},
		{User: 2, Kind: RequestCommand, Command: "b"},
		{User: 3, Kind: RequestCommand, Command: "c"},
	}
	for _, m := range msgs {
		if err := WriteRequest(&buf, m); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	for i, want := range msgs {
		got, err := ReadRequest(&buf)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("frame %d mismatch: want %+v got %+v", i, want, got)
		}
	}
}
