package service

import "testing"

func TestSportRuleCheck(t *testing.T) {
	rule := NewSportRule("Sala Sport", "Sport")

	cases := []struct {
		name    string
		subject string
		room    string
		reject  bool
	}{
		{"sport in sport room", "Sport", "Sala Sport", false},
		{"math in classroom", "Math", "Room 101", false},
		{"sport in classroom", "Sport", "Room 101", true},
		{"math in sport room", "Math", "Sala Sport", true},
		{"case and spacing ignored", " sport ", "sala sport", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reason := rule.Check(tc.subject, tc.room)
			if tc.reject && reason == "" {
				t.Fatalf("expected rejection for %s in %s", tc.subject, tc.room)
			}
			if !tc.reject && reason != "" {
				t.Fatalf("unexpected rejection: %s", reason)
			}
		})
	}
}

func TestSportRuleAllows(t *testing.T) {
	rule := NewSportRule("Sala Sport", "Sport")
	if !rule.Allows(true, true) || !rule.Allows(false, false) {
		t.Fatalf("matching pairs must be allowed")
	}
	if rule.Allows(true, false) || rule.Allows(false, true) {
		t.Fatalf("mismatched pairs must be rejected")
	}
}
