package demo

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/labconn/astm/pkg/astm/codec"
	"github.com/labconn/astm/pkg/astm/emitter"
)

// LoadRecordsFile reads a JSON document shaped as a list of records,
// each record a list of scalar field strings (record[0] is always the
// type code), and converts it to codec.Records. This is cmd/astmsend's
// input format: a plain JSON array-of-arrays keeps the CLI independent
// of any wire-level ASTM parser, since the point of the tool is to
// drive the client engine, not to re-decode ASTM text.
func LoadRecordsFile(path string) ([]codec.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("demo: read records file: %w", err)
	}

	var rows [][]string
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("demo: parse records file: %w", err)
	}

	records := make([]codec.Record, len(rows))
	for i, row := range rows {
		rec := make(codec.Record, len(row))
		for j, field := range row {
			rec[j] = codec.ScalarString(field)
		}
		records[i] = rec
	}
	return records, nil
}

// NewFileEmitter builds a one-shot emitter.Emitter over the records
// read from path.
func NewFileEmitter(path string) (emitter.Emitter, error) {
	records, err := LoadRecordsFile(path)
	if err != nil {
		return nil, err
	}
	return emitter.Slice(records), nil
}
