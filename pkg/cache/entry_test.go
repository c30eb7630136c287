package cache

import (
	"testing"
	"time"
)

func TestEntry_Size(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "empty", content: "", want: 0},
		{name: "ascii", content: "<h1>Title</h1>", want: 14},
		{name: "multibyte", content: "<p>ö</p>", want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{Content: tt.content}
			if got := entry.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEntry_Age(t *testing.T) {
	tests := []struct {
		name     string
		cachedAt time.Time
		wantMin  time.Duration
		wantMax  time.Duration
	}{
		{
			name:     "unset",
			cachedAt: time.Time{},
			wantMin:  0,
			wantMax:  0,
		},
		{
			name:     "one hour old",
			cachedAt: time.Now().Add(-1 * time.Hour),
			wantMin:  59 * time.Minute,
			wantMax:  61 * time.Minute,
		},
		{
			name:     "just cached",
			cachedAt: time.Now(),
			wantMin:  0,
			wantMax:  1 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{CachedAt: tt.cachedAt}
			got := entry.Age()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("Age() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}
