package router

import (
	"context"
	"strings"
	"testing"

	"octoshim/internal/chatgateway"
	"octoshim/internal/connection"
	"octoshim/internal/registry"
	"octoshim/internal/wire"
)

func TestSendCommandBroadcastsToBoundInstances(t *testing.T) {
	reg := registry.New(nil)
	q := connection.NewQueue()
	rec := registry.NewRecord("peer", q)
	rec.ApplySettings(&wire.Settings{ChannelID: 10})
	reg.Register(rec)

	r := New(reg)
	n := r.SendCommand(10, 5, "ping")
	if n != 1 {
		t.Fatalf("expected 1 recipient, got %d", n)
	}
	req, ok := q.Next()
	if !ok || req.Command != "ping" || req.User != 5 {
		t.Fatalf("unexpected request: %+v ok=%v", req, ok)
	}
}

func TestSendFileBroadcastsFileVariant(t *testing.T) {
	reg := registry.New(nil)
	q := connection.NewQueue()
	rec := registry.NewRecord("peer", q)
	rec.ApplySettings(&wire.Settings{ChannelID: 1})
	reg.Register(rec)

	r := New(reg)
	r.SendFile(1, 0, "a.txt", []byte("hi"))
	req, ok := q.Next()
	if !ok || req.Kind != wire.RequestFile || req.File.Filename != "a.txt" {
		t.Fatalf("unexpected request: %+v ok=%v", req, ok)
	}
}

type fakeSession struct {
	channel uint64
	content string
	files   []chatgateway.Attachment
}

func (f *fakeSession) SendMessage(context.Context, uint64, string, *wire.EmbedContent) error {
	return nil
}
func (f *fakeSession) SendFiles(_ context.Context, channel uint64, content string, _ *wire.EmbedContent, files []chatgateway.Attachment) error {
	f.channel, f.content, f.files = channel, content, files
	return nil
}
func (f *fakeSession) SetPresence(context.Context, chatgateway.Activity, chatgateway.Status) error {
	return nil
}
func (f *fakeSession) Open(context.Context) error { return nil }
func (f *fakeSession) Close() error               { return nil }

func TestSendStatsEncodesCSVAsFile(t *testing.T) {
	reg := registry.New(nil)
	rec := registry.NewRecord("1.1.1.1", connection.NewQueue())
	rec.RecordFrame(50)
	reg.Register(rec)

	r := New(reg)
	session := &fakeSession{}
	if err := r.SendStats(context.Background(), 7, session); err != nil {
		t.Fatalf("send stats: %v", err)
	}
	if session.channel != 7 {
		t.Fatalf("expected channel 7, got %d", session.channel)
	}
	if len(session.files) != 1 || session.files[0].Filename != "stats.csv" {
		t.Fatalf("expected one stats.csv attachment, got %+v", session.files)
	}
	if !strings.Contains(string(session.files[0].Data), "1.1.1.1") {
		t.Fatalf("expected csv to contain the record's ip, got %q", session.files[0].Data)
	}
}
