package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text unchanged", "Dr. Ann Lee", "Dr. Ann Lee"},
		{"strips tags", "<b>Ann</b> <i>Lee</i>", "Ann Lee"},
		{"drops script bodies", `Ann<script>alert("x")</script>`, "Ann"},
		{"keeps ampersand once", "Smith & Sons", "Smith & Sons"},
		{"decodes entities", "O&#39;Brien", "O'Brien"},
		{"collapses whitespace", "  123 Main St\n\tSuite 4  ", "123 Main St Suite 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
