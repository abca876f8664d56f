// Package embed splits an oversized logical chat embed into a sequence of
// platform-conformant embeds, and an oversized binary attachment into
// ordered zip chunks, per the limits a chat platform enforces on a single
// message.
package embed

import (
	"archive/zip"
	"bytes"
	"fmt"

	"octoshim/internal/wire"
)

const (
	oneMebibyte = 1024 * 1024

	// MaxAttachmentSize is the threshold below which a file is sent as a
	// single attachment unchanged.
	MaxAttachmentSize = 5 * oneMebibyte

	maxTitle       = 256
	maxDescription = 4096
	maxFields      = 25
	maxFieldValue  = 1024
	maxAuthor      = 256
	maxTotalChars  = 6000
)

// zeroWidthSpace is the sentinel substituted for an empty description so
// the embed still renders a body.
const zeroWidthSpace = "​"

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// BuildEmbeds transforms a logical EmbedContent into an ordered list of
// EmbedContent values, each satisfying every limit in this file. The first
// element carries the (truncated) title and snapshot; later elements carry
// only the zero-width-space description, author, and color. At least one
// embed is always returned, even when the input is empty.
func BuildEmbeds(content *wire.EmbedContent) []*wire.EmbedContent {
	author := truncate(content.Author, maxAuthor)

	first := &wire.EmbedContent{
		Title:    truncate(content.Title, maxTitle),
		Author:   author,
		Color:    content.Color,
		Snapshot: content.Snapshot,
	}
	if content.Description != "" {
		first.Description = truncate(content.Description, maxDescription)
	} else {
		first.Description = zeroWidthSpace
	}

	totalChars := len(first.Title) + len(first.Description) + len(first.Author)

	embeds := make([]*wire.EmbedContent, 0, 1)
	current := first

	newContinuation := func() *wire.EmbedContent {
		e := &wire.EmbedContent{
			Description: zeroWidthSpace,
			Author:      author,
			Color:       content.Color,
		}
		return e
	}

	for _, field := range content.TextField {
		trimmed := wire.TextField{
			Title:  truncate(field.Title, maxTitle),
			Text:   truncate(field.Text, maxFieldValue),
			Inline: field.Inline,
		}

		nextSize := totalChars + len(trimmed.Title) + len(trimmed.Text)
		if len(current.TextField) >= maxFields || nextSize > maxTotalChars {
			embeds = append(embeds, current)
			current = newContinuation()
			totalChars = len(current.Title) + len(current.Description) + len(current.Author)
		}

		current.TextField = append(current.TextField, trimmed)
		totalChars += len(trimmed.Title) + len(trimmed.Text)
	}

	embeds = append(embeds, current)
	return embeds
}

// SplitFile returns the attachments to send for (filename, data): a single
// attachment when data is under MaxAttachmentSize, or an ordered sequence
// of 1 MiB chunks of a single-entry, uncompressed zip archive otherwise.
// The zip container exists only to give the receiver a well-defined
// reassembly key; integrity is the archive format's concern, not the
// splitter's.
func SplitFile(filename string, data []byte) ([]wire.ProtoFile, error) {
	if len(data) < MaxAttachmentSize {
		return []wire.ProtoFile{{Filename: filename, Data: data}}, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   filename,
		Method: zip.Store,
	})
	if err != nil {
		return nil, fmt.Errorf("embed: create zip entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("embed: write zip entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("embed: finalize zip: %w", err)
	}

	zipData := buf.Bytes()
	attachments := make([]wire.ProtoFile, 0, (len(zipData)/oneMebibyte)+1)
	for i := 0; i*oneMebibyte < len(zipData); i++ {
		start := i * oneMebibyte
		end := start + oneMebibyte
		if end > len(zipData) {
			end = len(zipData)
		}
		chunk := make([]byte, end-start)
		copy(chunk, zipData[start:end])
		attachments = append(attachments, wire.ProtoFile{
			Filename: fmt.Sprintf("%s.zip.%03d", filename, i),
			Data:     chunk,
		})
	}
	return attachments, nil
}
