package mapping

import (
	"testing"

	"github.com/labconn/astm/pkg/astm/codec"
)

func TestFieldMapperMapsByPosition(t *testing.T) {
	m := FieldMapper{Type: "patient", Fields: []string{"recordType", "seq", "id"}}
	record := codec.Record{
		codec.ScalarString("P"),
		codec.ScalarString("1"),
		codec.ScalarString("12345"),
	}

	out, err := m.Map(record)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	got, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("Map returned %T, want map[string]any", out)
	}
	if got["recordType"] != "P" || got["seq"] != "1" || got["id"] != "12345" {
		t.Errorf("got %+v", got)
	}
	if got["type"] != "patient" {
		t.Errorf("type = %v, want patient", got["type"])
	}
}

func TestFieldMapperToleratesShortRecord(t *testing.T) {
	m := FieldMapper{Type: "patient", Fields: []string{"recordType", "seq", "id"}}
	record := codec.Record{codec.ScalarString("P")}

	out, err := m.Map(record)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	got := out.(map[string]any)
	if _, ok := got["id"]; ok {
		t.Error("expected no id key for a record shorter than Fields")
	}
}

func TestRegistryDispatchesByTypeCode(t *testing.T) {
	reg := Registry{
		'H': FieldMapper{Type: "header", Fields: []string{"recordType"}},
		'P': FieldMapper{Type: "patient", Fields: []string{"recordType"}},
	}

	out, err := reg.Map(codec.Record{codec.ScalarString("P")})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if out.(map[string]any)["type"] != "patient" {
		t.Errorf("got %+v", out)
	}

	if _, err := reg.Map(codec.Record{codec.ScalarString("Z")}); err == nil {
		t.Error("expected error for unregistered type code")
	}
}

func TestValidatorEmptySchemaPasses(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(nil, map[string]any{"anything": true}); err != nil {
		t.Errorf("empty schema should always pass: %v", err)
	}
}

func TestValidatorRejectsMissingRequiredField(t *testing.T) {
	v := NewValidator()
	schema := []byte(`{"type":"object","required":["id"],"properties":{"id":{"type":"string"}}}`)
	if err := v.Validate(schema, map[string]any{"other": 1}); err == nil {
		t.Error("expected validation error for missing required field")
	}
	if err := v.Validate(schema, map[string]any{"id": "abc"}); err != nil {
		t.Errorf("expected valid payload to pass: %v", err)
	}
}
