package audit

import (
	"encoding/json"
	"fmt"
	"time"

	domaudit "github.com/kailas-cloud/piiredact/internal/domain/audit"
)

// recordJSON is the stored form of an audit record.
type recordJSON struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	ItemCount int    `json:"item_count"`
	Timestamp int64  `json:"ts"`
}

func marshalRecord(rec domaudit.Record) ([]byte, error) {
	data, err := json.Marshal(recordJSON{
		ID:        rec.ID,
		Kind:      string(rec.Kind),
		ItemCount: rec.ItemCount,
		Timestamp: rec.Timestamp.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit record: %w", err)
	}
	return data, nil
}

func unmarshalRecord(data []byte) (domaudit.Record, error) {
	var j recordJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return domaudit.Record{}, fmt.Errorf("unmarshal audit record: %w", err)
	}
	kind := domaudit.Kind(j.Kind)
	if !kind.IsValid() {
		return domaudit.Record{}, fmt.Errorf("unknown audit kind %q", j.Kind)
	}
	return domaudit.Record{
		ID:        j.ID,
		Kind:      kind,
		ItemCount: j.ItemCount,
		Timestamp: time.UnixMilli(j.Timestamp).UTC(),
	}, nil
}
