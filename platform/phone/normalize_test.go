package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "national dutch mobile", input: "06 12345678", want: "+31612345678"},
		{name: "already e164", input: "+31612345678", want: "+31612345678"},
		{name: "whitespace only", input: "   ", want: ""},
		{name: "garbage is returned trimmed", input: "  call me  ", want: "call me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeE164(tt.input); got != tt.want {
				t.Fatalf("NormalizeE164(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeE164InUsesRegion(t *testing.T) {
	got := NormalizeE164In("0612345678", "nl")
	if got != "+31612345678" {
		t.Fatalf("expected +31612345678, got %q", got)
	}
}
