package embed

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"octoshim/internal/wire"
)

func TestBuildEmbedsRespectsLimits(t *testing.T) {
	fields := make([]wire.TextField, 0, 26)
	for i := 0; i < 26; i++ {
		fields = append(fields, wire.TextField{
			Title: strings.Repeat("t", maxTitle+10),
			Text:  strings.Repeat("v", maxFieldValue+10),
		})
	}
	content := &wire.EmbedContent{
		Title:       strings.Repeat("T", maxTitle+50),
		Description: strings.Repeat("D", maxDescription+50),
		Author:      strings.Repeat("A", maxAuthor+50),
		Color:       123,
		TextField:   fields,
	}

	embeds := BuildEmbeds(content)
	if len(embeds) == 0 {
		t.Fatal("expected at least one embed")
	}

	var totalFields int
	for i, e := range embeds {
		if len(e.Title) > maxTitle {
			t.Fatalf("embed %d title too long: %d", i, len(e.Title))
		}
		if len(e.Description) > maxDescription {
			t.Fatalf("embed %d description too long: %d", i, len(e.Description))
		}
		if len(e.Author) > maxAuthor {
			t.Fatalf("embed %d author too long: %d", i, len(e.Author))
		}
		if len(e.TextField) > maxFields {
			t.Fatalf("embed %d has too many fields: %d", i, len(e.TextField))
		}
		total := len(e.Title) + len(e.Description) + len(e.Author)
		for _, f := range e.TextField {
			if len(f.Text) > maxFieldValue {
				t.Fatalf("embed %d field value too long: %d", i, len(f.Text))
			}
			total += len(f.Title) + len(f.Text)
		}
		if total > maxTotalChars {
			t.Fatalf("embed %d exceeds total char budget: %d", i, total)
		}
		totalFields += len(e.TextField)

		if i == 0 {
			if e.Title == "" {
				t.Fatal("first embed should carry the truncated title")
			}
		} else if e.Title != "" {
			t.Fatalf("embed %d should not carry a title, got %q", i, e.Title)
		}
	}
	if totalFields != len(fields) {
		t.Fatalf("expected %d fields total across embeds, got %d", len(fields), totalFields)
	}
}

func TestBuildEmbedsEmptyDescriptionSentinel(t *testing.T) {
	embeds := BuildEmbeds(&wire.EmbedContent{Title: "T"})
	if len(embeds) != 1 {
		t.Fatalf("expected exactly one embed, got %d", len(embeds))
	}
	if embeds[0].Description != zeroWidthSpace {
		t.Fatalf("expected zero-width-space description, got %q", embeds[0].Description)
	}
}

func TestBuildEmbedsAlwaysEmitsAtLeastOne(t *testing.T) {
	embeds := BuildEmbeds(&wire.EmbedContent{})
	if len(embeds) != 1 {
		t.Fatalf("expected exactly one (empty) embed, got %d", len(embeds))
	}
}

func TestBuildEmbedsFirstCarriesSnapshotOnlyOnce(t *testing.T) {
	snap := &wire.ProtoFile{Filename: "s.png", Data: []byte{1}}
	fields := make([]wire.TextField, 30)
	for i := range fields {
		fields[i] = wire.TextField{Title: "t", Text: "v"}
	}
	embeds := BuildEmbeds(&wire.EmbedContent{Title: "T", Snapshot: snap, TextField: fields})
	if len(embeds) < 2 {
		t.Fatalf("expected subdivision into multiple embeds, got %d", len(embeds))
	}
	if embeds[0].Snapshot != snap {
		t.Fatal("first embed must carry the snapshot")
	}
	for i := 1; i < len(embeds); i++ {
		if embeds[i].Snapshot != nil {
			t.Fatalf("embed %d should not carry a snapshot", i)
		}
	}
}

func TestSplitFileSmall(t *testing.T) {
	data := []byte("hello world")
	attachments, err := SplitFile("note.txt", data)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(attachments))
	}
	if attachments[0].Filename != "note.txt" {
		t.Fatalf("unexpected filename: %s", attachments[0].Filename)
	}
	if !bytes.Equal(attachments[0].Data, data) {
		t.Fatal("data mismatch")
	}
}

func TestSplitFileLarge(t *testing.T) {
	data := make([]byte, 7*oneMebibyte)
	for i := range data {
		data[i] = byte(i)
	}

	attachments, err := SplitFile("x.bin", data)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(attachments) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(attachments))
	}

	var reassembled bytes.Buffer
	for i, a := range attachments {
		want := "x.bin.zip." + padThree(i)
		if a.Filename != want {
			t.Fatalf("chunk %d filename: want %s got %s", i, want, a.Filename)
		}
		if len(a.Data) > oneMebibyte {
			t.Fatalf("chunk %d exceeds 1MiB: %d", i, len(a.Data))
		}
		reassembled.Write(a.Data)
	}

	zr, err := zip.NewReader(bytes.NewReader(reassembled.Bytes()), int64(reassembled.Len()))
	if err != nil {
		t.Fatalf("reassembled data is not a valid zip: %v", err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("expected single zip entry, got %d", len(zr.File))
	}
	if zr.File[0].Name != "x.bin" {
		t.Fatalf("unexpected zip entry name: %s", zr.File[0].Name)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open zip entry: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read zip entry: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("zip entry contents do not match original data")
	}
}

func padThree(i int) string {
	s := "000"
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	if len(digits) == 0 {
		return s
	}
	if len(digits) >= 3 {
		return string(digits)
	}
	return s[:3-len(digits)] + string(digits)
}
