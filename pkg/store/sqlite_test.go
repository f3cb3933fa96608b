package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "manifest", "spool.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Put(ctx, Record{
		Kind:     "tee",
		Success:  true,
		Message:  "tee generated",
		Filename: "out/tee.3mf",
		Units:    "inch",
		Fields:   map[string]string{"nps": "4", "schedule": "80"},
		Duration: 1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("put did not assign ID/CreatedAt: %+v", rec)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Kind != "tee" || !got.Success || got.Filename != "out/tee.3mf" {
		t.Errorf("got %+v", got)
	}
	if got.Fields["schedule"] != "80" {
		t.Errorf("fields = %v", got.Fields)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v", got.Duration)
	}
	if got.RunID != "" || got.Job != "" {
		t.Errorf("empty strings should read back empty: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := s.NewRunID()

	puts := []Record{
		{RunID: run, Kind: "pipe", Job: "a", Success: true, Message: "ok"},
		{RunID: run, Kind: "pipe", Job: "b", Success: false, Message: "no such schedule"},
		{RunID: run, Kind: "flange", Job: "c", Success: true, Message: "ok", Warnings: 2},
		{Kind: "pipe", Success: true, Message: "ok"},
	}
	for _, r := range puts {
		if _, err := s.Put(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		p    ListParams
		want int
	}{
		{"all", ListParams{}, 4},
		{"run", ListParams{RunID: run}, 3},
		{"kind", ListParams{Kind: "pipe"}, 3},
		{"failed", ListParams{FailedOnly: true}, 1},
		{"run and kind", ListParams{RunID: run, Kind: "flange"}, 1},
		{"limit", ListParams{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.p)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}

	runs, err := s.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %+v", runs)
	}
	if r := runs[0]; r.RunID != run || r.Total != 3 || r.Succeeded != 2 || r.Warnings != 2 {
		t.Errorf("summary = %+v", r)
	}
}

func TestConcurrentPuts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := s.NewRunID()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Put(ctx, Record{RunID: run, Kind: "pipe", Success: true, Message: "ok"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := s.List(ctx, ListParams{RunID: run})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 8 {
		t.Errorf("len = %d, want 8", len(got))
	}
	seen := map[string]bool{}
	for _, r := range got {
		if seen[r.ID] {
			t.Errorf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
}
