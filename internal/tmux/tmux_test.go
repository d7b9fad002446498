package tmux

import "testing"

func TestSetSessionName(t *testing.T) {
	defer SetSessionName("troupe")

	tests := []struct {
		in   string
		want string
	}{
		{"troupe", "troupe"},
		{"my project", "my_project"},
		{"a:b.c", "a_b_c"},
		{"", "troupe"},
		{"dev-1", "dev-1"},
	}
	for _, tt := range tests {
		SetSessionName(tt.in)
		if SessionName != tt.want {
			t.Errorf("SetSessionName(%q): SessionName = %q, want %q", tt.in, SessionName, tt.want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	if got := splitLines(""); got != nil {
		t.Errorf("splitLines(\"\") = %v, want nil", got)
	}
	if got := splitLines("a\nb\n"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitLines = %v, want [a b]", got)
	}
}
