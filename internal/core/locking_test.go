package core

import (
	"strings"
	"testing"
)

func TestGate(t *testing.T) {
	cases := []struct {
		adjustment, locked, want bool
	}{
		{false, false, true},
		{false, true, false},
		{true, true, true},
		{true, false, true},
	}
	for _, tc := range cases {
		for name, gate := range map[string]func(bool, bool) bool{
			"create": CanCreate,
			"edit":   CanEdit,
			"delete": CanDelete,
		} {
			if got := gate(tc.adjustment, tc.locked); got != tc.want {
				t.Fatalf("%s adjustment=%v locked=%v expected %v", name, tc.adjustment, tc.locked, tc.want)
			}
		}
	}
}

func TestLockMessages(t *testing.T) {
	ym := YearMonth{Year: 2024, Month: 1}
	if got := AlreadyLockedMessage(ym); got != "January 2024 is already locked." {
		t.Fatalf("unexpected %q", got)
	}
	if got := NotLockedMessage(ym); !strings.Contains(got, "not locked") {
		t.Fatalf("unexpected %q", got)
	}
	if got := LockedMessage(ym); got != "January 2024 has been locked." {
		t.Fatalf("unexpected %q", got)
	}
	if got := UnlockedMessage(ym); got != "January 2024 has been unlocked." {
		t.Fatalf("unexpected %q", got)
	}
}
