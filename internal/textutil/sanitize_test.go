package textutil

import "testing"

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Quarterly Report", "Quarterly Report"},
		{"  padded  ", "padded"},
		{"a/b:c?d", "a_b_c_d"},
		{"plan-v2_final", "plan-v2_final"},
		{"会议纪要", "会议纪要"},
		{"Café", "Café"},
		{"Cafe\u0301", "Caf\u00e9"},
		{"50% off!", "50_ off_"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeTitle(tt.in); got != tt.want {
			t.Fatalf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(` a/b\c:d*e?f"g<h>i|j `); got != "a-b-c-d-efghij" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := SanitizeFileName("   "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestNormalizeExtension(t *testing.T) {
	for _, in := range []string{".DOCX", "docx", " .docx "} {
		if got := NormalizeExtension(in); got != "docx" {
			t.Fatalf("NormalizeExtension(%q) = %q", in, got)
		}
	}
}
