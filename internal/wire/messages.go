// Package wire defines the discriminated-union message types that cross
// the TCP boundary between the bridge and a local client, and hand-rolled
// marshalling for them against the protobuf wire format.
//
// The generated protobuf stubs a protoc run would normally produce are a
// build artifact outside this repository's scope (see api/discordshim.proto
// for the normative schema); these types and their Marshal/Unmarshal
// methods are written directly against
// google.golang.org/protobuf/encoding/protowire, the same low-level layer
// generated "fast path" marshallers (e.g. vtprotobuf) target.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ProtoFile mirrors the ProtoFile message (field numbers 1=filename, 2=data).
type ProtoFile struct {
	Filename string
	Data     []byte
}

func (f *ProtoFile) Marshal() []byte {
	var b []byte
	if f == nil {
		return b
	}
	if f.Filename != "" {
		b = appendString(b, 1, f.Filename)
	}
	if len(f.Data) > 0 {
		b = appendBytes(b, 2, f.Data)
	}
	return b
}

func (f *ProtoFile) unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n, err := consumeTag(b)
		if err != nil {
			return err
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			f.Filename = string(v)
			b = b[n:]
		case 2:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			f.Data = append([]byte(nil), v...)
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// TextField mirrors TextField (1=title, 2=text, 3=inline).
type TextField struct {
	Title  string
	Text   string
	Inline bool
}

func (t *TextField) Marshal() []byte {
	var b []byte
	if t.Title != "" {
		b = appendString(b, 1, t.Title)
	}
	if t.Text != "" {
		b = appendString(b, 2, t.Text)
	}
	if t.Inline {
		b = appendVarint(b, 3, 1)
	}
	return b
}

func (t *TextField) unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n, err := consumeTag(b)
		if err != nil {
			return err
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			t.Title = string(v)
			b = b[n:]
		case 2:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			t.Text = string(v)
			b = b[n:]
		case 3:
			v, n, err := expectVarint(b, typ)
			if err != nil {
				return err
			}
			t.Inline = v != 0
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// EmbedContent mirrors EmbedContent (1=title, 2=description, 3=author,
// 4=color, 5=snapshot, 6=repeated textfield).
type EmbedContent struct {
	Title       string
	Description string
	Author      string
	Color       uint32
	Snapshot    *ProtoFile
	TextField   []TextField
}

func (e *EmbedContent) Marshal() []byte {
	var b []byte
	if e == nil {
		return b
	}
	if e.Title != "" {
		b = appendString(b, 1, e.Title)
	}
	if e.Description != "" {
		b = appendString(b, 2, e.Description)
	}
	if e.Author != "" {
		b = appendString(b, 3, e.Author)
	}
	if e.Color != 0 {
		b = appendVarint(b, 4, uint64(e.Color))
	}
	if e.Snapshot != nil {
		b = appendBytes(b, 5, e.Snapshot.Marshal())
	}
	for i := range e.TextField {
		b = appendBytes(b, 6, e.TextField[i].Marshal())
	}
	return b
}

func (e *EmbedContent) unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n, err := consumeTag(b)
		if err != nil {
			return err
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			e.Title = string(v)
			b = b[n:]
		case 2:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			e.Description = string(v)
			b = b[n:]
		case 3:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			e.Author = string(v)
			b = b[n:]
		case 4:
			v, n, err := expectVarint(b, typ)
			if err != nil {
				return err
			}
			e.Color = uint32(v)
			b = b[n:]
		case 5:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			snap := &ProtoFile{}
			if err := snap.unmarshal(v); err != nil {
				return err
			}
			e.Snapshot = snap
			b = b[n:]
		case 6:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			var tf TextField
			if err := tf.unmarshal(v); err != nil {
				return err
			}
			e.TextField = append(e.TextField, tf)
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// Settings mirrors Settings (1=channel_id, 2=command_prefix, 3=cycle_time,
// 4=presence_enabled).
type Settings struct {
	ChannelID       uint64
	CommandPrefix   string
	CycleTime       int32
	PresenceEnabled bool
}

func (s *Settings) Marshal() []byte {
	var b []byte
	if s.ChannelID != 0 {
		b = appendVarint(b, 1, s.ChannelID)
	}
	if s.CommandPrefix != "" {
		b = appendString(b, 2, s.CommandPrefix)
	}
	if s.CycleTime != 0 {
		b = appendVarint(b, 3, uint64(int64(s.CycleTime)))
	}
	if s.PresenceEnabled {
		b = appendVarint(b, 4, 1)
	}
	return b
}

func (s *Settings) unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n, err := consumeTag(b)
		if err != nil {
			return err
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := expectVarint(b, typ)
			if err != nil {
				return err
			}
			s.ChannelID = v
			b = b[n:]
		case 2:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			s.CommandPrefix = string(v)
			b = b[n:]
		case 3:
			v, n, err := expectVarint(b, typ)
			if err != nil {
				return err
			}
			s.CycleTime = int32(int64(v))
			b = b[n:]
		case 4:
			v, n, err := expectVarint(b, typ)
			if err != nil {
				return err
			}
			s.PresenceEnabled = v != 0
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// Presence mirrors Presence (1=presence).
type Presence struct {
	Presence string
}

func (p *Presence) Marshal() []byte {
	var b []byte
	if p.Presence != "" {
		b = appendString(b, 1, p.Presence)
	}
	return b
}

func (p *Presence) unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n, err := consumeTag(b)
		if err != nil {
			return err
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			p.Presence = string(v)
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// ResponseKind names which oneof alternative a Response carries.
type ResponseKind int

const (
	ResponseNone ResponseKind = iota
	ResponseFile
	ResponseEmbed
	ResponsePresence
	ResponseSettings
)

// Response is the downstream message: local client -> bridge. Exactly one
// of the non-nil fields is populated, matching ResponseKind; a Response
// with Kind == ResponseNone is a valid no-op frame, not an error.
type Response struct {
	Kind     ResponseKind
	File     *ProtoFile
	Embed    *EmbedContent
	Presence *Presence
	Settings *Settings
}

func (r *Response) Marshal() []byte {
	var b []byte
	switch r.Kind {
	case ResponseFile:
		b = appendBytes(b, 1, r.File.Marshal())
	case ResponseEmbed:
		b = appendBytes(b, 2, r.Embed.Marshal())
	case ResponsePresence:
		b = appendBytes(b, 3, r.Presence.Marshal())
	case ResponseSettings:
		b = appendBytes(b, 4, r.Settings.Marshal())
	}
	return b
}

func (r *Response) Unmarshal(b []byte) error {
	*r = Response{}
	for len(b) > 0 {
		num, typ, n, err := consumeTag(b)
		if err != nil {
			return err
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			f := &ProtoFile{}
			if err := f.unmarshal(v); err != nil {
				return err
			}
			r.Kind, r.File = ResponseFile, f
			b = b[n:]
		case 2:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			e := &EmbedContent{}
			if err := e.unmarshal(v); err != nil {
				return err
			}
			r.Kind, r.Embed = ResponseEmbed, e
			b = b[n:]
		case 3:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			p := &Presence{}
			if err := p.unmarshal(v); err != nil {
				return err
			}
			r.Kind, r.Presence = ResponsePresence, p
			b = b[n:]
		case 4:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			s := &Settings{}
			if err := s.unmarshal(v); err != nil {
				return err
			}
			r.Kind, r.Settings = ResponseSettings, s
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// RequestKind names which oneof alternative a Request carries.
type RequestKind int

const (
	RequestNone RequestKind = iota
	RequestCommand
	RequestFile
)

// Request is the upstream message: bridge -> local client.
type Request struct {
	User    uint64
	Kind    RequestKind
	Command string
	File    *ProtoFile
}

func (r *Request) Marshal() []byte {
	var b []byte
	if r.User != 0 {
		b = appendVarint(b, 1, r.User)
	}
	switch r.Kind {
	case RequestCommand:
		b = appendString(b, 2, r.Command)
	case RequestFile:
		b = appendBytes(b, 3, r.File.Marshal())
	}
	return b
}

func (r *Request) Unmarshal(b []byte) error {
	*r = Request{}
	for len(b) > 0 {
		num, typ, n, err := consumeTag(b)
		if err != nil {
			return err
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := expectVarint(b, typ)
			if err != nil {
				return err
			}
			r.User = v
			b = b[n:]
		case 2:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			r.Kind, r.Command = RequestCommand, string(v)
			b = b[n:]
		case 3:
			v, n, err := expectBytes(b, typ)
			if err != nil {
				return err
			}
			f := &ProtoFile{}
			if err := f.unmarshal(v); err != nil {
				return err
			}
			r.Kind, r.File = RequestFile, f
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// --- low-level helpers over protowire ---

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func consumeTag(b []byte) (protowire.Number, protowire.Type, int, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return 0, 0, 0, fmt.Errorf("wire: %w", protowire.ParseError(n))
	}
	return num, typ, n, nil
}

func expectBytes(b []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("wire: unexpected wire type %d for length-delimited field", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("wire: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func expectVarint(b []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("wire: unexpected wire type %d for varint field", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("wire: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func skipField(b []byte, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, b)
	if n < 0 {
		return 0, fmt.Errorf("wire: %w", protowire.ParseError(n))
	}
	return n, nil
}
