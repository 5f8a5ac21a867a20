package domain

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer Promo!", "summer_promo"},
		{"  padded  ", "padded"},
		{"already_safe-name", "already_safe-name"},
		{"tabs\tand  spaces", "tabs_and_spaces"},
		{"émoji stripped", "moji_stripped"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumberStatusValid(t *testing.T) {
	for _, s := range []NumberStatus{NumberSent, NumberFailed} {
		if !s.Valid() {
			t.Errorf("%s should be a valid outcome", s)
		}
	}
	for _, s := range []NumberStatus{NumberPending, "", "queued", "SENT"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}
