package order

import (
	"strings"
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPending, false},
		{StatusPaid, StatusFailed, false},
		{StatusPaid, StatusCancelled, false},
		{StatusFailed, StatusPaid, false},
		{StatusCancelled, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
				t.Errorf("CanTransitionTo = %v, want %v", got, tt.ok)
			}
		})
	}
}

func TestStatusIsFinal(t *testing.T) {
	if StatusPending.IsFinal() {
		t.Error("pending should not be final")
	}
	for _, s := range []Status{StatusPaid, StatusFailed, StatusCancelled} {
		if !s.IsFinal() {
			t.Errorf("%q should be final", s)
		}
	}
}

func TestNewCode(t *testing.T) {
	at := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	code := NewCode(at)
	if !strings.HasPrefix(code, "SO-20260829-") {
		t.Errorf("code = %q, want SO-20260829- prefix", code)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		c := NewCode(at)
		if seen[c] {
			t.Fatalf("duplicate code generated: %q", c)
		}
		seen[c] = true
	}
}
