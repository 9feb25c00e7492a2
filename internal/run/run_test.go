package run

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunWaitsForAllComponents(t *testing.T) {
	s := New()
	done := make(chan struct{}, 2)
	s.Add(func(ctx context.Context) error {
		<-ctx.Done()
		done <- struct{}{}
		return nil
	})
	s.Add(func(ctx context.Context) error {
		<-ctx.Done()
		done <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(done) != 2 {
		t.Errorf("expected both components to observe cancellation, got %d", len(done))
	}
}

func TestRunPropagatesComponentError(t *testing.T) {
	s := New()
	wantErr := errors.New("boom")
	s.Add(func(ctx context.Context) error { return wantErr })
	s.Add(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Run(ctx); !errors.Is(err, wantErr) {
		t.Errorf("Run() = %v, want %v", err, wantErr)
	}
}
