package playback

import (
	"math"
	"sync"
	"testing"
	"time"
)

func collectEvents(p *HeadlessPlayer) (*[]Event, *sync.Mutex) {
	var mu sync.Mutex
	events := &[]Event{}
	p.SetListener(func(ev Event) {
		mu.Lock()
		*events = append(*events, ev)
		mu.Unlock()
	})
	return events, &mu
}

func TestHeadlessSeekWhilePausedDoesNotResume(t *testing.T) {
	p := NewHeadlessPlayer()
	p.Load("src", 0, true)

	p.Seek(42)
	if !p.Paused() {
		t.Fatal("seek resumed a paused player")
	}
	if got := p.CurrentTime(); got != 42 {
		t.Fatalf("expected position 42, got %v", got)
	}
}

func TestHeadlessLoadFiresElementCascade(t *testing.T) {
	p := NewHeadlessPlayer()
	events, mu := collectEvents(p)

	p.Load("src", 5, true)
	mu.Lock()
	got := append([]Event(nil), *events...)
	mu.Unlock()
	want := []Event{EventSeeked, EventPause}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("paused load cascade: want %v, got %v", want, got)
	}

	p.Load("src2", 0, false)
	mu.Lock()
	last := (*events)[len(*events)-1]
	mu.Unlock()
	if last != EventPlaying {
		t.Fatalf("playing load should end with playing, got %v", last)
	}
}

func TestHeadlessPositionAdvancesWithWallClock(t *testing.T) {
	p := NewHeadlessPlayer()
	p.Load("src", 10, false)

	time.Sleep(60 * time.Millisecond)
	if got := p.CurrentTime(); got <= 10 {
		t.Fatalf("playing position should advance past 10, got %v", got)
	}

	p.Pause()
	at := p.CurrentTime()
	time.Sleep(40 * time.Millisecond)
	if got := p.CurrentTime(); got != at {
		t.Fatalf("paused position moved from %v to %v", at, got)
	}
}

func TestHeadlessSeekClampsToDuration(t *testing.T) {
	p := NewHeadlessPlayer()
	p.Load("src", 0, true)
	p.SetDuration(120)

	p.Seek(500)
	if got := p.CurrentTime(); got != 120 {
		t.Fatalf("expected clamp to 120, got %v", got)
	}
	p.Seek(-5)
	if got := p.CurrentTime(); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestHeadlessDurationUnknownUntilSet(t *testing.T) {
	p := NewHeadlessPlayer()
	if !math.IsNaN(p.Duration()) {
		t.Fatalf("expected NaN duration, got %v", p.Duration())
	}
	p.SetDuration(90)
	if got := p.Duration(); got != 90 {
		t.Fatalf("expected duration 90, got %v", got)
	}
}

func TestFormatTime(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{math.NaN(), "00:00"},
		{-3, "00:00"},
		{0, "00:00"},
		{59, "00:59"},
		{61, "01:01"},
		{600.9, "10:00"},
		{3661, "01:01:01"},
		{7325, "02:02:05"},
	}
	for _, tc := range cases {
		if got := FormatTime(tc.in); got != tc.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
