package tui

import (
	"testing"
	"time"
)

func TestStats_Record(t *testing.T) {
	var s stats
	now := time.Now()

	s.record(now, 100)
	s.record(now, 200)

	if s.totalMessages != 2 {
		t.Errorf("totalMessages = %d, want 2", s.totalMessages)
	}
	if s.totalBytes != 300 {
		t.Errorf("totalBytes = %d, want 300", s.totalBytes)
	}
}

func TestStats_AvgSize(t *testing.T) {
	var s stats
	now := time.Now()

	if s.avgSize() != 0 {
		t.Errorf("avgSize with no messages should be 0, got %d", s.avgSize())
	}

	s.record(now, 100)
	s.record(now, 300)

	if s.avgSize() != 200 {
		t.Errorf("avgSize = %d, want 200", s.avgSize())
	}
}

func TestStats_MsgPerSec(t *testing.T) {
	var s stats
	now := time.Now()

	if s.msgPerSec(now) != 0 {
		t.Errorf("msgPerSec with no messages should be 0, got %f", s.msgPerSec(now))
	}

	// 10 messages over the last 2 seconds
	for i := 0; i < 10; i++ {
		s.record(now.Add(-2*time.Second+time.Duration(i)*200*time.Millisecond), 50)
	}

	rate := s.msgPerSec(now)
	if rate < 4.0 || rate > 6.0 {
		t.Errorf("msgPerSec = %f, want ~5.0", rate)
	}
}

func TestStats_WindowExpiry(t *testing.T) {
	var s stats
	now := time.Now()

	// Old messages outside the window should fall out of the rate
	s.record(now.Add(-statsWindow-time.Minute), 50)
	s.record(now.Add(-statsWindow-time.Second), 50)

	if rate := s.msgPerSec(now); rate != 0 {
		t.Errorf("expired messages should not count, got rate %f", rate)
	}

	// Totals are cumulative regardless of expiry
	if s.totalMessages != 2 {
		t.Errorf("totalMessages = %d, want 2", s.totalMessages)
	}
}

func TestFormatRate(t *testing.T) {
	if got := formatRate(12.345); got != "12.3 msg/s" {
		t.Errorf("formatRate = %q", got)
	}
	if got := formatRate(0); got != "0.0 msg/s" {
		t.Errorf("formatRate = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
