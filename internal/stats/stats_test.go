package stats

import "testing"

func TestCollect(t *testing.T) {
	s := Collect()

	if s.Goroutines < 1 {
		t.Errorf("expected at least 1 goroutine, got %d", s.Goroutines)
	}

	if s.RSSBytes == 0 {
		t.Error("expected non-zero memory usage")
	}

	if s.Uptime < 0 {
		t.Errorf("negative uptime: %s", s.Uptime)
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(512); got != "512 B" {
		t.Errorf("expected 512 B, got %s", got)
	}

	if got := FormatBytes(2048); got != "2.0 KB" {
		t.Errorf("expected 2.0 KB, got %s", got)
	}

	if got := FormatBytes(5 * 1024 * 1024); got != "5.0 MB" {
		t.Errorf("expected 5.0 MB, got %s", got)
	}
}
