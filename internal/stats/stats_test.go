package stats

import (
	"strings"
	"testing"

	"octoshim/internal/registry"
)

func TestEncodeCSVHeaderAndRows(t *testing.T) {
	snapshots := []registry.Stats{
		{IP: "1.2.3.4", NumMessages: 3, TotalBytes: 100},
		{IP: "5.6.7.8", NumMessages: 0, TotalBytes: 0},
	}
	out, err := EncodeCSV(snapshots)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %v", len(lines), lines)
	}
	if lines[0] != "ip,num_messages,total_data" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "1.2.3.4,3,100" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	if lines[2] != "5.6.7.8,0,0" {
		t.Fatalf("unexpected row: %q", lines[2])
	}
}

func TestEncodeCSVEmpty(t *testing.T) {
	out, err := EncodeCSV(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.TrimRight(string(out), "\n") != "ip,num_messages,total_data" {
		t.Fatalf("expected header only, got %q", out)
	}
}
