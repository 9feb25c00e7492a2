package dispatch

import (
	"context"
	"testing"

	"github.com/labconn/astm/pkg/astm/codec"
)

type recordingDispatcher struct {
	NopDispatcher
	calls []string
}

func (r *recordingDispatcher) DispatchHeader(ctx context.Context, rec codec.Record) error {
	r.calls = append(r.calls, "header")
	return nil
}

func (r *recordingDispatcher) DispatchPatient(ctx context.Context, rec codec.Record) error {
	r.calls = append(r.calls, "patient")
	return nil
}

func (r *recordingDispatcher) DispatchUnknown(ctx context.Context, rec codec.Record) error {
	r.calls = append(r.calls, "unknown")
	return nil
}

func TestDemuxRoutesByTypeCode(t *testing.T) {
	d := &recordingDispatcher{}
	ctx := context.Background()

	records := []codec.Record{
		{codec.ScalarString("H")},
		{codec.ScalarString("P")},
		{codec.ScalarString("Z")},
	}
	for _, r := range records {
		if err := Demux(ctx, d, r); err != nil {
			t.Fatalf("demux: %v", err)
		}
	}

	want := []string{"header", "patient", "unknown"}
	if len(d.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", d.calls, want)
	}
	for i := range want {
		if d.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, d.calls[i], want[i])
		}
	}
}

func TestDemuxRoutesEmptyRecordToUnknown(t *testing.T) {
	d := &recordingDispatcher{}
	if err := Demux(context.Background(), d, codec.Record{}); err != nil {
		t.Fatalf("demux: %v", err)
	}
	if len(d.calls) != 1 || d.calls[0] != "unknown" {
		t.Errorf("calls = %v, want [unknown]", d.calls)
	}
}
