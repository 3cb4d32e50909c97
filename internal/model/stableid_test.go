package model

import (
	"strings"
	"testing"
)

func TestStableID_Format(t *testing.T) {
	id := StableID("com.app:id/ok", "android.widget.Button", Bounds{0, 0, 100, 50}, 2, 1, "node_parent")
	if !strings.HasPrefix(id, "node_") {
		t.Fatalf("id %q missing prefix", id)
	}
	hex := strings.TrimPrefix(id, "node_")
	if len(hex) != 12 {
		t.Errorf("expected 12 hex chars, got %d (%q)", len(hex), hex)
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("non-hex char %q in %q", r, id)
		}
	}
}

func TestStableID_Deterministic(t *testing.T) {
	b := Bounds{10, 20, 110, 70}
	a := StableID("rid", "cls", b, 3, 0, "w1")
	if got := StableID("rid", "cls", b, 3, 0, "w1"); got != a {
		t.Errorf("same inputs produced %q and %q", a, got)
	}
}

func TestStableID_SensitiveToEachInput(t *testing.T) {
	b := Bounds{10, 20, 110, 70}
	base := StableID("rid", "cls", b, 3, 0, "w1")
	variants := map[string]string{
		"resourceId": StableID("rid2", "cls", b, 3, 0, "w1"),
		"className":  StableID("rid", "cls2", b, 3, 0, "w1"),
		"bounds":     StableID("rid", "cls", Bounds{10, 20, 110, 71}, 3, 0, "w1"),
		"depth":      StableID("rid", "cls", b, 4, 0, "w1"),
		"index":      StableID("rid", "cls", b, 3, 1, "w1"),
		"parent":     StableID("rid", "cls", b, 3, 0, "w2"),
	}
	for field, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the id", field)
		}
	}
}
