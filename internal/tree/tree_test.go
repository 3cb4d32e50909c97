package tree

import (
	"context"
	"testing"

	"github.com/mj1618/remote-ui-mcp/internal/fault"
	"github.com/mj1618/remote-ui-mcp/internal/model"
	"github.com/mj1618/remote-ui-mcp/internal/platform"
	"github.com/mj1618/remote-ui-mcp/internal/platform/virtual"
	"github.com/mj1618/remote-ui-mcp/internal/uithread"
)

var testScreen = model.ScreenInfo{Width: 1080, Height: 1920, Density: 2, Orientation: model.OrientationPortrait}

func attrs(class, text string, b model.Bounds) platform.NodeAttributes {
	return platform.NodeAttributes{ClassName: class, Text: text, Bounds: b, Enabled: true, Visible: true}
}

// settingsDevice builds a focused application window (id 1, layer 1) with a
// list of two rows, and a system window (id 2, layer 5).
func settingsDevice() (*virtual.Device, map[string]*virtual.Node) {
	nodes := map[string]*virtual.Node{}
	nodes["wifi"] = virtual.NewNode(attrs("TextView", "Wi-Fi", model.Bounds{Left: 0, Top: 100, Right: 1080, Bottom: 200}))
	nodes["bt"] = virtual.NewNode(attrs("TextView", "Bluetooth", model.Bounds{Left: 0, Top: 200, Right: 1080, Bottom: 300}))
	listAttrs := attrs("RecyclerView", "", model.Bounds{Left: 0, Top: 100, Right: 1080, Bottom: 1800})
	listAttrs.Scrollable = true
	nodes["list"] = virtual.NewNode(listAttrs, nodes["wifi"], nodes["bt"])
	nodes["root"] = virtual.NewNode(attrs("FrameLayout", "", model.Bounds{Right: 1080, Bottom: 1920}), nodes["list"])
	nodes["clock"] = virtual.NewNode(attrs("TextView", "12:30", model.Bounds{Right: 200, Bottom: 80}))

	dev := virtual.NewDevice(testScreen)
	dev.AddWindow(platform.WindowInfo{ID: 1, Type: model.WindowApplication, PackageName: "com.example.settings", Layer: 1, Focused: true}, nodes["root"])
	dev.AddWindow(platform.WindowInfo{ID: 2, Type: model.WindowSystem, PackageName: "com.android.systemui", Layer: 5}, nodes["clock"])
	return dev, nodes
}

func chain(depth int) *virtual.Node {
	n := virtual.NewNode(attrs("View", "leaf", model.Bounds{Right: 10, Bottom: 10}))
	for i := 0; i < depth; i++ {
		n = virtual.NewNode(attrs("View", "", model.Bounds{Right: 10, Bottom: 10}), n)
	}
	return n
}

func maxDepth(n model.NodeSnapshot) int {
	deepest := 0
	for _, c := range n.Children {
		if d := maxDepth(c) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

func TestParseTree_EphemeralReleasesChildren(t *testing.T) {
	dev, _ := settingsDevice()
	root := dev.RootHandle()

	snap := ParseTree(root, "w1", nil)
	if snap.Count() != 4 {
		t.Errorf("Count() = %d, want 4", snap.Count())
	}
	if dev.LiveHandles() != 1 {
		t.Errorf("only the root handle should remain live, got %d", dev.LiveHandles())
	}
	root.Release()
	if dev.LiveHandles() != 0 {
		t.Errorf("LiveHandles() = %d after releasing root", dev.LiveHandles())
	}
}

func TestParseTree_CachingKeepsEveryHandle(t *testing.T) {
	dev, _ := settingsDevice()
	sink := &Sink{}
	snap := ParseTree(dev.RootHandle(), "w1", sink)

	if sink.Len() != snap.Count() {
		t.Errorf("sink holds %d handles, tree has %d nodes", sink.Len(), snap.Count())
	}
	if dev.LiveHandles() != int64(snap.Count()) {
		t.Errorf("LiveHandles() = %d, want %d", dev.LiveHandles(), snap.Count())
	}
	sink.Discard()
	if dev.LiveHandles() != 0 {
		t.Errorf("LiveHandles() = %d after Discard", dev.LiveHandles())
	}
}

func TestParseTree_ParentLinkedIDs(t *testing.T) {
	dev, _ := settingsDevice()
	root := dev.RootHandle()
	defer root.Release()
	snap := ParseTree(root, "w1", nil)

	wantRoot := model.StableID("", "FrameLayout", model.Bounds{Right: 1080, Bottom: 1920}, 0, 0, "w1")
	if snap.ID != wantRoot {
		t.Errorf("root id = %q, want %q", snap.ID, wantRoot)
	}
	list := snap.Children[0]
	wantList := model.StableID("", "RecyclerView", model.Bounds{Left: 0, Top: 100, Right: 1080, Bottom: 1800}, 1, 0, wantRoot)
	if list.ID != wantList {
		t.Errorf("list id = %q, want %q", list.ID, wantList)
	}
	if list.Children[0].ID == list.Children[1].ID {
		t.Error("siblings must have distinct ids")
	}
}

func TestParseTree_DepthLimit(t *testing.T) {
	dev := virtual.NewDevice(testScreen)
	dev.AddWindow(platform.WindowInfo{ID: 1, Focused: true}, chain(MaxDepth+5))
	root := dev.RootHandle()
	defer root.Release()

	snap := ParseTree(root, "w1", nil)
	if got := maxDepth(snap); got != MaxDepth {
		t.Errorf("deepest node at depth %d, want %d", got, MaxDepth)
	}
	if snap.Count() != MaxDepth+1 {
		t.Errorf("Count() = %d, want %d", snap.Count(), MaxDepth+1)
	}
}

func TestParseTree_ExactlyMaxDepthIsNotTruncated(t *testing.T) {
	dev := virtual.NewDevice(testScreen)
	dev.AddWindow(platform.WindowInfo{ID: 1, Focused: true}, chain(MaxDepth))
	root := dev.RootHandle()
	defer root.Release()

	snap := ParseTree(root, "w1", nil)
	if got := maxDepth(snap); got != MaxDepth {
		t.Errorf("deepest node at depth %d, want %d", got, MaxDepth)
	}
}

func TestParseTree_DeterministicAcrossParses(t *testing.T) {
	dev, _ := settingsDevice()
	first, second := dev.RootHandle(), dev.RootHandle()
	defer first.Release()
	defer second.Release()

	a := ParseTree(first, "w1", nil)
	b := ParseTree(second, "w1", nil)
	var idsA, idsB []string
	model.Walk(a, func(n model.NodeSnapshot, _ string) bool { idsA = append(idsA, n.ID); return true })
	model.Walk(b, func(n model.NodeSnapshot, _ string) bool { idsB = append(idsB, n.ID); return true })
	for i := range idsA {
		if idsA[i] != idsB[i] {
			t.Errorf("node %d: %q != %q", i, idsA[i], idsB[i])
		}
	}
}

func TestCache_PutCollisionReleasesLoser(t *testing.T) {
	dev, _ := settingsDevice()
	c := NewCache()
	c.Put("node_same", dev.RootHandle(), 0, 0, "w1")
	c.Put("node_same", dev.RootHandle(), 0, 0, "w1")
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if dev.LiveHandles() != 1 {
		t.Errorf("LiveHandles() = %d, the overwritten handle should be released", dev.LiveHandles())
	}
	c.Clear()
	if dev.LiveHandles() != 0 {
		t.Errorf("LiveHandles() = %d after Clear", dev.LiveHandles())
	}
}

func TestCache_UseMissing(t *testing.T) {
	c := NewCache()
	err := c.Use("node_000000000000", func(platform.NativeHandle, Entry) error { return nil })
	if fault.KindOf(err) != fault.KindElementNotFound {
		t.Errorf("expected element not found, got %v", err)
	}
}

func TestCache_UseEvictsStale(t *testing.T) {
	dev, nodes := settingsDevice()
	c := NewCache()
	sink := &Sink{}
	snap := ParseTree(dev.RootHandle(), "w1", sink)
	c.Replace(sink)
	wifiID := snap.Children[0].Children[0].ID

	called := false
	if err := c.Use(wifiID, func(h platform.NativeHandle, e Entry) error {
		called = true
		if e.Depth != 2 || e.Index != 0 {
			t.Errorf("entry = %+v, want depth 2 index 0", e)
		}
		return nil
	}); err != nil || !called {
		t.Fatalf("Use on live node: called=%v err=%v", called, err)
	}

	dev.Detach(nodes["wifi"])
	before := dev.LiveHandles()
	err := c.Use(wifiID, func(platform.NativeHandle, Entry) error {
		t.Error("fn must not run for a stale handle")
		return nil
	})
	if fault.KindOf(err) != fault.KindElementNotFound {
		t.Errorf("expected element not found, got %v", err)
	}
	if _, ok := c.Get(wifiID); ok {
		t.Error("stale entry should be evicted")
	}
	if dev.LiveHandles() != before-1 {
		t.Errorf("stale handle should be released: %d -> %d", before, dev.LiveHandles())
	}
	c.Clear()
}

func newScanner(dev *virtual.Device) (*Scanner, *Cache, *uithread.Loop) {
	loop := uithread.New()
	cache := NewCache()
	return NewScanner(dev, cache, loop), cache, loop
}

func TestScanner_OrdersWindowsByLayer(t *testing.T) {
	dev, _ := settingsDevice()
	dev.AddWindow(platform.WindowInfo{ID: 0, Type: model.WindowInputMethod, Layer: 5}, chain(1))
	s, _, loop := newScanner(dev)
	defer loop.Close()

	res, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Degraded {
		t.Error("multi-window scan should not be degraded")
	}
	var order []int
	for _, w := range res.Windows {
		order = append(order, w.WindowID)
	}
	want := []int{0, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("window order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("window order = %v, want %v", order, want)
		}
	}
}

func TestScanner_ReplacesCache(t *testing.T) {
	dev, nodes := settingsDevice()
	s, cache, loop := newScanner(dev)
	defer loop.Close()
	ctx := context.Background()

	first, err := s.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, w := range first.Windows {
		total += w.Tree.Count()
	}
	if dev.LiveHandles() != int64(total) {
		t.Errorf("LiveHandles() = %d, want %d", dev.LiveHandles(), total)
	}

	dev.Detach(nodes["bt"])
	if _, err := s.Scan(ctx); err != nil {
		t.Fatal(err)
	}
	if dev.LiveHandles() != int64(total-1) {
		t.Errorf("LiveHandles() = %d after rescan, want %d", dev.LiveHandles(), total-1)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if dev.LiveHandles() != 0 {
		t.Errorf("LiveHandles() = %d after Clear", dev.LiveHandles())
	}
	_ = cache
}

func TestScanner_StableIDsAcrossScans(t *testing.T) {
	dev, _ := settingsDevice()
	s, _, loop := newScanner(dev)
	defer loop.Close()
	defer s.Clear(context.Background())

	a, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	flatA, flatB := model.FlattenWindows(a.Windows), model.FlattenWindows(b.Windows)
	if len(flatA) != len(flatB) {
		t.Fatalf("node counts differ: %d vs %d", len(flatA), len(flatB))
	}
	for i := range flatA {
		if flatA[i].Node.ID != flatB[i].Node.ID {
			t.Errorf("node %d id changed: %q -> %q", i, flatA[i].Node.ID, flatB[i].Node.ID)
		}
	}
}

func TestScanner_Degraded(t *testing.T) {
	dev, _ := settingsDevice()
	dev.SetMultiWindow(false)
	s, cache, loop := newScanner(dev)
	defer loop.Close()
	defer s.Clear(context.Background())

	res, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Degraded {
		t.Error("expected degraded result")
	}
	if len(res.Windows) != 1 || !res.Windows[0].Focused {
		t.Fatalf("expected one focused window, got %+v", res.Windows)
	}
	if res.Windows[0].Tree.Count() != 4 {
		t.Errorf("degraded tree has %d nodes, want 4", res.Windows[0].Tree.Count())
	}
	var size int
	_ = loop.Do(context.Background(), func() error { size = cache.Len(); return nil })
	if size != 4 {
		t.Errorf("cache holds %d entries, want 4", size)
	}
}

func TestScanner_NotReady(t *testing.T) {
	dev, _ := settingsDevice()
	dev.SetReady(false)
	s, _, loop := newScanner(dev)
	defer loop.Close()

	_, err := s.Scan(context.Background())
	if fault.KindOf(err) != fault.KindPermissionDenied {
		t.Errorf("expected permission denied, got %v", err)
	}
}

// failingProvider wraps one window root of a virtual device so that a native
// call on it panics.
type failingProvider struct {
	*virtual.Device
	windowID int
	method   string
}

func (p failingProvider) Windows() ([]platform.Window, error) {
	ws, err := p.Device.Windows()
	for i := range ws {
		if ws[i].Info.ID == p.windowID {
			ws[i].Root = failingHandle{NativeHandle: ws[i].Root, method: p.method}
		}
	}
	return ws, err
}

type failingHandle struct {
	platform.NativeHandle
	method string
}

func (h failingHandle) Attributes() platform.NodeAttributes {
	if h.method == "attributes" {
		panic("device went away")
	}
	return h.NativeHandle.Attributes()
}

func (h failingHandle) Child(i int) platform.NativeHandle {
	if h.method == "child" {
		panic("device went away")
	}
	return h.NativeHandle.Child(i)
}

func TestScanner_FailedScanReleasesHandles(t *testing.T) {
	tests := []struct {
		name   string
		method string
	}{
		{"root attributes", "attributes"},
		{"child lookup", "child"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, _ := settingsDevice()
			// Layer 0 sorts after window 1, so its root is never reached.
			dev.AddWindow(platform.WindowInfo{ID: 3, Type: model.WindowApplication, Layer: 0}, chain(2))
			loop := uithread.New()
			defer loop.Close()
			cache := NewCache()
			s := NewScanner(failingProvider{Device: dev, windowID: 1, method: tt.method}, cache, loop)

			_, err := s.Scan(context.Background())
			if fault.KindOf(err) != fault.KindInternal {
				t.Fatalf("expected internal fault, got %v", err)
			}
			var size int
			_ = loop.Do(context.Background(), func() error { size = cache.Len(); return nil })
			if size != 0 {
				t.Errorf("cache holds %d entries after a failed scan", size)
			}
			if dev.LiveHandles() != 0 {
				t.Errorf("LiveHandles() = %d after a failed scan, want 0", dev.LiveHandles())
			}
		})
	}
}

func TestParseTree_EphemeralReleasesOnPanic(t *testing.T) {
	dev, _ := settingsDevice()
	dev.AddWindow(platform.WindowInfo{ID: 3, Layer: 0}, virtual.NewNode(attrs("FrameLayout", "", model.Bounds{Right: 10, Bottom: 10}), chain(1)))
	ws, err := dev.Windows()
	if err != nil {
		t.Fatal(err)
	}
	var root platform.NativeHandle
	for _, w := range ws {
		if w.Info.ID == 3 {
			root = w.Root
		} else {
			w.Root.Release()
		}
	}
	func() {
		defer func() { _ = recover() }()
		ParseTree(panickyChildren{root}, "w3", nil)
	}()
	root.Release()
	if dev.LiveHandles() != 0 {
		t.Errorf("LiveHandles() = %d after a failed ephemeral parse, want 0", dev.LiveHandles())
	}
}

// panickyChildren hands out children whose attribute reads panic.
type panickyChildren struct {
	platform.NativeHandle
}

func (h panickyChildren) Child(i int) platform.NativeHandle {
	return failingHandle{NativeHandle: h.NativeHandle.Child(i), method: "attributes"}
}
