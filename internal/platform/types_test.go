package platform

import (
	"testing"

	"github.com/mj1618/remote-ui-mcp/internal/model"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"forward", DirectionForward, false},
		{"DOWN", DirectionForward, false},
		{"backward", DirectionBackward, false},
		{"up", DirectionBackward, false},
		{"sideways", DirectionForward, true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDirection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseBounds(t *testing.T) {
	got, err := ParseBounds("0, 10, 1080,200")
	if err != nil {
		t.Fatal(err)
	}
	want := model.Bounds{Left: 0, Top: 10, Right: 1080, Bottom: 200}
	if got != want {
		t.Errorf("ParseBounds() = %+v, want %+v", got, want)
	}
	for _, bad := range []string{"1,2,3", "a,b,c,d", "100,0,10,10"} {
		if _, err := ParseBounds(bad); err == nil {
			t.Errorf("ParseBounds(%q) should fail", bad)
		}
	}
}

func TestAction_String(t *testing.T) {
	if ActionLongClick.String() != "long_click" {
		t.Errorf("got %q", ActionLongClick.String())
	}
	if Action(99).String() != "action(99)" {
		t.Errorf("got %q", Action(99).String())
	}
}
