package sanitize

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"script tag", "<script>alert(1)</script>hello", "alert(1)hello"},
		{"unclosed tag", "hi <b>there", "hi there"},
		{"javascript scheme", "javascript:alert(1)", "alert(1)"},
		{"scheme case insensitive", "JaVaScRiPt:alert(1)", "alert(1)"},
		{"scheme split by tag", "java<b></b>script:alert(1)", "alert(1)"},
		{"semicolons and ampersands", "a;b&c", "abc"},
		{"trim", "  padded  ", "padded"},
		{"only markup collapses to empty", "<br><p></p>", ""},
		{"keeps unicode", "привет 🔥", "привет 🔥"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
