package normalize_test

import (
	"testing"

	"github.com/mwholloway/salescope/internal/app/system/normalize"
)

func TestEmail(t *testing.T) {
	cases := map[string]string{
		"  User@Example.COM ": "user@example.com",
		"plain@example.com":   "plain@example.com",
		"":                    "",
	}
	for in, want := range cases {
		if got := normalize.Email(in); got != want {
			t.Errorf("Email(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestRole(t *testing.T) {
	if got := normalize.Role(" Admin "); got != "admin" {
		t.Errorf("Role: got %q, want %q", got, "admin")
	}
	if got := normalize.Role("user"); got != "user" {
		t.Errorf("Role: got %q, want %q", got, "user")
	}
}

func TestStatus(t *testing.T) {
	if got := normalize.Status("DISABLED"); got != "disabled" {
		t.Errorf("Status: got %q, want %q", got, "disabled")
	}
}
