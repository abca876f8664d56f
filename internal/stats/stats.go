// Package stats encodes registry snapshots as CSV for the outbound
// router's stats entry point.
package stats

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"octoshim/internal/registry"
)

// EncodeCSV renders snapshots as CSV with header "ip,num_messages,total_data".
func EncodeCSV(snapshots []registry.Stats) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"ip", "num_messages", "total_data"}); err != nil {
		return nil, fmt.Errorf("stats: write header: %w", err)
	}
	for _, s := range snapshots {
		row := []string{s.IP, fmt.Sprintf("%d", s.NumMessages), fmt.Sprintf("%d", s.TotalBytes)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("stats: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("stats: flush: %w", err)
	}
	return buf.Bytes(), nil
}
