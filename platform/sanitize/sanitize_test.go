package sanitize

import "testing"

func TestNote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"plain", "owner moved", 0, "owner moved"},
		{"tags", "<b>checked</b> deed", 0, "checked deed"},
		{"encoded tags", "&lt;script&gt;alert(1)&lt;/script&gt;ok", 0, "alert(1)ok"},
		{"whitespace", "  line one\n\n\tline two ", 0, "line one line two"},
		{"cut by runes", "straße 12", 5, "straß"},
		{"empty", "   ", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Note(tt.in, tt.max); got != tt.want {
				t.Fatalf("Note(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
