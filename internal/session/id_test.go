package session

import (
	"strings"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	id := newIDAt(time.Date(2024, 1, 15, 14, 30, 52, 0, time.UTC))

	if len(id) != 22 {
		t.Fatalf("id=%q, expected length 22", id)
	}
	if !strings.HasPrefix(id, "20240115-143052-") {
		t.Fatalf("id=%q, expected timestamp prefix", id)
	}
	if NewID() == NewID() {
		t.Fatal("consecutive IDs collided")
	}
}

func TestParseIDTime(t *testing.T) {
	tests := []struct {
		id       string
		wantYear int
		wantOK   bool
	}{
		{"20240115-143052-a1b2c3", 2024, true},
		{"20231225-000000-ffffff", 2023, true},
		{"2023122X-000000-ffffff", 0, false},
		{"short", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got := ParseIDTime(tt.id)
		if tt.wantOK && got.Year() != tt.wantYear {
			t.Errorf("ParseIDTime(%q).Year() = %d, want %d", tt.id, got.Year(), tt.wantYear)
		}
		if !tt.wantOK && !got.IsZero() {
			t.Errorf("ParseIDTime(%q) = %v, want zero time", tt.id, got)
		}
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"20240115-143052-a1b2c3", "240115-1430"},
		{"20231225-000000-ffffff", "231225-0000"},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		if got := ShortID(tt.input); got != tt.expected {
			t.Errorf("ShortID(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
