package utils

import "testing"

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Summer Photo (1)!": "summer-photo-1",
		"already-clean":     "already-clean",
		"  Spaces   ":       "spaces",
		"Ünïcode":           "ncode",
		"---":               "",
	}
	for input, want := range cases {
		if got := GenerateSlug(input); got != want {
			t.Errorf("GenerateSlug(%q) = %q, want %q", input, got, want)
		}
	}
}
