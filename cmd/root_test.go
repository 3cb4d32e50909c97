package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mj1618/remote-ui-mcp/internal/config"
	"github.com/mj1618/remote-ui-mcp/internal/output"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		output.OutputFormat = output.FormatYAML
		output.PrettyOutput = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		_ = rootCmd.PersistentFlags().Set("format", "yaml")
		_ = rootCmd.PersistentFlags().Set("pretty", "false")
		_ = snapshotCmd.Flags().Set("visible-only", "false")
		_ = snapshotCmd.Flags().Set("flat", "false")
	})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"serve", "tools", "snapshot"}
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	if _, err := execute(t, "tools", "--format", "xml"); err == nil {
		t.Error("expected an error for --format xml")
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flags := serveCmd.Flags()
	tests := []struct {
		name     string
		flagType string
	}{
		{"config", "string"},
		{"address", "string"},
		{"layout", "string"},
		{"max-sessions", "int"},
		{"tool-timeout", "duration"},
		{"cache-ttl", "duration"},
		{"rate-limit", "float64"},
		{"log-level", "string"},
		{"trace-exporter", "string"},
		{"metric-exporter", "string"},
	}
	for _, tt := range tests {
		f := flags.Lookup(tt.name)
		if f == nil {
			t.Errorf("expected flag %q not found", tt.name)
			continue
		}
		if f.Value.Type() != tt.flagType {
			t.Errorf("flag %q: expected type %q, got %q", tt.name, tt.flagType, f.Value.Type())
		}
	}
}

func TestFlagOverrides_OnlyChangedFlags(t *testing.T) {
	t.Cleanup(func() {
		for _, name := range []string{"address", "tool-timeout"} {
			f := serveCmd.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	if err := serveCmd.Flags().Set("address", "0.0.0.0:9000"); err != nil {
		t.Fatal(err)
	}
	if err := serveCmd.Flags().Set("tool-timeout", "5s"); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	flagOverrides(serveCmd)(&cfg)
	if cfg.Address != "0.0.0.0:9000" || cfg.ToolTimeout != 5*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxSessions != config.Default().MaxSessions || cfg.CacheTTL != config.Default().CacheTTL {
		t.Errorf("unset flags changed the config: %+v", cfg)
	}
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{"127.0.0.1:8765", true},
		{"localhost:8765", true},
		{"[::1]:8765", true},
		{"0.0.0.0:8765", false},
		{":8765", false},
		{"192.168.1.5:80", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := isLoopback(tt.address); got != tt.want {
			t.Errorf("isLoopback(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}

func TestToolsCommand(t *testing.T) {
	out, err := execute(t, "tools", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var entries []toolEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	byName := make(map[string]toolEntry)
	for _, e := range entries {
		byName[e.Name] = e
	}
	find, ok := byName["find_elements"]
	if !ok {
		t.Fatal("find_elements missing from catalogue")
	}
	if !find.ReadOnly || strings.Join(find.Required, ",") != "by,value" || strings.Join(find.Optional, ",") != "exact_match" {
		t.Errorf("unexpected find_elements entry %+v", find)
	}
	if byName["click_element"].ReadOnly {
		t.Error("click_element marked read-only")
	}
}

func TestSnapshotCommand_Layout(t *testing.T) {
	layout := `screen: {width: 100, height: 200, density: 1, orientation: portrait}
windows:
  - id: 7
    type: application
    package: com.example
    layer: 0
    focused: true
    root:
      class: android.widget.FrameLayout
      bounds: 0,0,100,200
      children:
        - class: android.widget.Button
          text: OK
          bounds: 10,10,90,40
          flags: [clickable]
        - class: android.widget.TextView
          text: Hidden
          bounds: 10,50,90,80
          flags: [hidden]
`
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte(layout), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "snapshot", "--layout", path, "--visible-only")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"windowId: 7", "text: OK", "id: node_", "width: 100"} {
		if !strings.Contains(out, want) {
			t.Errorf("snapshot output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Hidden") {
		t.Errorf("--visible-only kept a hidden node:\n%s", out)
	}
}

func TestSnapshotCommand_Flat(t *testing.T) {
	layout := `screen: {width: 100, height: 200, density: 1, orientation: portrait}
windows:
  - id: 7
    type: application
    package: com.example
    layer: 0
    root:
      class: android.widget.FrameLayout
      bounds: 0,0,100,200
      children:
        - class: android.widget.Button
          text: OK
          bounds: 10,10,90,40
`
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte(layout), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--format", "json", "snapshot", "--layout", path, "--flat")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Elements []struct {
			WindowID int    `json:"windowId"`
			Path     string `json:"path"`
			Node     struct {
				ID       string            `json:"id"`
				Children []json.RawMessage `json:"children"`
			} `json:"node"`
		} `json:"elements"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	wantPaths := []string{"FrameLayout", "FrameLayout > Button"}
	if len(got.Elements) != len(wantPaths) {
		t.Fatalf("got %d elements, want %d:\n%s", len(got.Elements), len(wantPaths), out)
	}
	for i, e := range got.Elements {
		if e.WindowID != 7 || e.Path != wantPaths[i] {
			t.Errorf("element %d = window %d path %q, want window 7 path %q", i, e.WindowID, e.Path, wantPaths[i])
		}
		if !strings.HasPrefix(e.Node.ID, "node_") || len(e.Node.Children) != 0 {
			t.Errorf("element %d should be a leaf with a stable id: %+v", i, e.Node)
		}
	}
}

func TestSnapshotCommand_MissingLayout(t *testing.T) {
	if _, err := execute(t, "snapshot", "--layout", filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing layout")
	}
}
