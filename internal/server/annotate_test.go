package server

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/mj1618/remote-ui-mcp/internal/model"
)

func blankJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAnnotateCapture(t *testing.T) {
	node := func(id string, clickable, visible bool, b model.Bounds) model.NodeSnapshot {
		return model.NodeSnapshot{ID: id, Clickable: clickable, Visible: visible, Enabled: true, Bounds: b}
	}
	root := node("node_root00000000", false, true, model.Bounds{Right: 200, Bottom: 400})
	root.Children = []model.NodeSnapshot{
		node("node_aaaaaaaaaaaa", true, true, model.Bounds{Left: 10, Top: 10, Right: 190, Bottom: 60}),
		node("node_bbbbbbbbbbbb", true, false, model.Bounds{Left: 10, Top: 70, Right: 190, Bottom: 120}),
		node("node_cccccccccccc", true, true, model.Bounds{}),
	}
	windows := []model.WindowSnapshot{{WindowID: 1, Tree: root}}

	out, labelled, err := annotateCapture(blankJPEG(t, 100, 200), windows, model.ScreenInfo{Width: 200, Height: 400}, 80)
	if err != nil {
		t.Fatal(err)
	}
	if labelled != 1 {
		t.Errorf("labelled = %d, want 1", labelled)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 200 {
		t.Errorf("image resized to %v", img.Bounds())
	}
}

func TestAnnotateCapture_RejectsNonJPEG(t *testing.T) {
	if _, _, err := annotateCapture([]byte("not an image"), nil, model.ScreenInfo{}, 80); err == nil {
		t.Error("expected decode error")
	}
}
