package flow

import (
	"errors"
	"testing"
)

func TestStandardTableOrdering(t *testing.T) {
	cases := []struct {
		name    string
		seq     []byte
		wantErr bool
	}{
		{"header first", []byte{'H', 'P', 'O', 'R', 'L'}, false},
		{"comment anywhere", []byte{'H', 'C', 'P', 'C', 'L'}, false},
		{"manufacturer anywhere", []byte{'H', 'M', 'P', 'O', 'M', 'L'}, false},
		{"repeat session after terminator", []byte{'H', 'P', 'L', 'H', 'P', 'L'}, false},
		{"scientific after result", []byte{'H', 'P', 'O', 'R', 'S', 'L'}, false},
		{"patient cannot start session", []byte{'P'}, true},
		{"order before patient", []byte{'H', 'O'}, true},
		{"result before order", []byte{'H', 'P', 'R'}, true},
		{"terminator cannot start session", []byte{'L'}, true},
		{"header cannot repeat mid-session", []byte{'H', 'P', 'H'}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := New(Standard())
			var err error
			for _, code := range tc.seq {
				if err = m.Next(code); err != nil {
					break
				}
			}
			if tc.wantErr && err == nil {
				t.Fatalf("sequence %q: want error, got nil", tc.seq)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("sequence %q: unexpected error: %v", tc.seq, err)
			}
		})
	}
}

func TestMachineResetClearsPrev(t *testing.T) {
	m := New(Standard())
	if err := m.Next('H'); err != nil {
		t.Fatalf("Next(H): %v", err)
	}
	if err := m.Next('P'); err != nil {
		t.Fatalf("Next(P): %v", err)
	}

	m.Reset()
	if prev, seen := m.Prev(); seen || prev != 0 {
		t.Fatalf("Prev() after Reset = (%q, %v), want (0, false)", prev, seen)
	}

	// After Reset, only H may legally start a new session again.
	if err := m.Next('P'); err == nil {
		t.Fatal("Next(P) after Reset: want error, got nil")
	}
	if err := m.Next('H'); err != nil {
		t.Fatalf("Next(H) after Reset: %v", err)
	}
}

func TestNilTableDisablesValidation(t *testing.T) {
	m := New(nil)
	for _, code := range []byte{'L', 'R', 'H', 'P', 'O'} {
		if err := m.Next(code); err != nil {
			t.Fatalf("Next(%q) with nil table: %v", code, err)
		}
	}
}

func TestInvalidOrderErrorMessage(t *testing.T) {
	m := New(Standard())
	err := m.Next('P')
	if err == nil {
		t.Fatal("want error for P as first record")
	}
	var orderErr *InvalidOrderError
	if !errors.As(err, &orderErr) {
		t.Fatalf("err = %v, want *InvalidOrderError", err)
	}
	if orderErr.Prev != 0 || orderErr.Next != 'P' {
		t.Fatalf("orderErr = %+v, want Prev=0 Next=P", orderErr)
	}
}
