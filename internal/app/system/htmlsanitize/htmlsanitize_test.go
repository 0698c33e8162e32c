package htmlsanitize_test

import (
	"testing"

	"github.com/mwholloway/salescope/internal/app/system/htmlsanitize"
)

func TestDisplayName_StripsMarkup(t *testing.T) {
	got := htmlsanitize.DisplayName(`<script>alert(1)</script>Ada`)
	if got != "Ada" {
		t.Errorf("got %q, want %q", got, "Ada")
	}
}

func TestDisplayName_PlainTextUnchanged(t *testing.T) {
	got := htmlsanitize.DisplayName("  Grace Hopper ")
	if got != "Grace Hopper" {
		t.Errorf("got %q, want %q", got, "Grace Hopper")
	}
}

func TestDisplayName_StripsTagsKeepsText(t *testing.T) {
	got := htmlsanitize.DisplayName(`<b>Bold</b> Name`)
	if got != "Bold Name" {
		t.Errorf("got %q, want %q", got, "Bold Name")
	}
}
