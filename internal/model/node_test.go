package model

import "testing"

func TestBounds(t *testing.T) {
	b := Bounds{Left: 10, Top: 20, Right: 110, Bottom: 70}
	if b.Width() != 100 || b.Height() != 50 {
		t.Errorf("size = %dx%d, want 100x50", b.Width(), b.Height())
	}
	if b.Empty() {
		t.Error("bounds should not be empty")
	}
	if !(Bounds{Left: 5, Right: 5, Bottom: 10}).Empty() {
		t.Error("zero-width bounds should be empty")
	}
}

func TestNodeSnapshot_LeafAndCount(t *testing.T) {
	n := sampleTree()
	if n.Count() != 4 {
		t.Errorf("Count() = %d, want 4", n.Count())
	}
	leaf := n.Leaf()
	if len(leaf.Children) != 0 {
		t.Error("Leaf() should drop children")
	}
	if len(n.Children) != 2 {
		t.Error("Leaf() must not modify the receiver")
	}
}

func TestParseWindowType(t *testing.T) {
	tests := []struct {
		in   string
		want WindowType
	}{
		{"application", WindowApplication},
		{" INPUT_METHOD ", WindowInputMethod},
		{"split_screen_divider", WindowSplitScreenDivider},
		{"bogus", WindowUnknown},
		{"", WindowUnknown},
	}
	for _, tt := range tests {
		if got := ParseWindowType(tt.in); got != tt.want {
			t.Errorf("ParseWindowType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
