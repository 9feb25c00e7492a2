package astm

import (
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/labconn/astm/pkg/astm/codec"
)

func TestEncodeTextTranscodesLatin1(t *testing.T) {
	// "é" is U+00E9: one byte (0xE9) in Latin-1, two bytes in UTF-8.
	rec := codec.Record{codec.ScalarString("R"), codec.ScalarString("café")}
	out, err := EncodeText([]codec.Record{rec}, charmap.ISO8859_1)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}

	got := out[0][1].Bytes()
	want := []byte{'c', 'a', 'f', 0xE9}
	if string(got) != string(want) {
		t.Fatalf("EncodeText scalar bytes = %v, want %v", got, want)
	}
}

func TestDecodeTextInvertsEncodeText(t *testing.T) {
	rec := codec.Record{codec.ScalarString("R"), codec.ScalarString("café")}

	encoded, err := EncodeText([]codec.Record{rec}, charmap.ISO8859_1)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	decoded, err := DecodeText(encoded, charmap.ISO8859_1)
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}

	if string(decoded[0][1].Bytes()) != "café" {
		t.Fatalf("DecodeText roundtrip = %q, want %q", decoded[0][1].Bytes(), "café")
	}
}

func TestTranscodePreservesRecordStructure(t *testing.T) {
	comp, err := codec.Component(codec.ScalarString("a"), codec.ScalarString("b"))
	if err != nil {
		t.Fatalf("Component: %v", err)
	}
	rep, err := codec.Repeated(comp, comp)
	if err != nil {
		t.Fatalf("Repeated: %v", err)
	}
	rec := codec.Record{codec.ScalarString("R"), codec.AbsentField(), rep}

	out, err := EncodeText([]codec.Record{rec}, charmap.ISO8859_1)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}

	got := out[0]
	if got[1].Kind() != codec.Absent {
		t.Errorf("field 1 kind = %v, want Absent", got[1].Kind())
	}
	if got[2].Kind() != codec.RepeatedKind || len(got[2].Parts()) != 2 {
		t.Errorf("field 2 = %+v, want a 2-part repeated field", got[2])
	}
	if got[2].Parts()[0].Kind() != codec.ComponentKind || len(got[2].Parts()[0].Parts()) != 2 {
		t.Errorf("field 2 part 0 = %+v, want a 2-part component", got[2].Parts()[0])
	}
}
