package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	var logged []int
	for done := 1; done <= 8; done++ {
		if s.ShouldLog(done, 8) {
			logged = append(logged, done)
		}
	}
	want := []int{1, 2, 4, 6, 8}
	if len(logged) != len(want) {
		t.Fatalf("logged %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged %v, want %v", logged, want)
		}
	}
	s.Reset()
	if !s.ShouldLog(1, 8) {
		t.Fatal("expected log after reset")
	}
}

func TestProgressSamplerNilAndZeroTotal(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(1, 2) {
		t.Fatal("nil sampler should always log")
	}
	if !NewProgressSampler(0).ShouldLog(0, 0) {
		t.Fatal("zero total should log")
	}
}

func TestPruneLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := filepath.Join(dir, "old.log")
	fresh := filepath.Join(dir, "fresh.log")
	other := filepath.Join(dir, "keep.db")
	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := now.AddDate(0, 0, -10)
	for _, p := range []string{old, other} {
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	if removed := PruneLogs(nil, dir, "*.log", 5, now); removed != 1 {
		t.Fatalf("removed %d files, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, p := range []string{fresh, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
	if removed := PruneLogs(nil, dir, "*", 0, now); removed != 0 {
		t.Fatal("retention 0 should disable pruning")
	}
}
