package cmd

import (
	"context"
	"time"

	"github.com/mj1618/remote-ui-mcp/internal/config"
	"github.com/mj1618/remote-ui-mcp/internal/model"
	"github.com/mj1618/remote-ui-mcp/internal/output"
	"github.com/mj1618/remote-ui-mcp/internal/server"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the UI tree of every window",
	Long: `Scan the device once and print every window's tree, topmost first, with
the stable ids the MCP tools accept.`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().String("layout", "", "Scan a virtual device built from this YAML layout")
	snapshotCmd.Flags().Bool("visible-only", false, "Omit invisible nodes")
	snapshotCmd.Flags().Bool("flat", false, "Print a flat element list with class-name paths instead of trees")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	layout, _ := cmd.Flags().GetString("layout")
	visibleOnly, _ := cmd.Flags().GetBool("visible-only")
	flat, _ := cmd.Flags().GetBool("flat")

	device, err := openDevice(layout)
	if err != nil {
		return err
	}
	cfg := config.Default()
	srv := server.New(device, config.Static(cfg))
	defer srv.Close(context.Background())

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ToolTimeout)
	defer cancel()
	result, err := srv.Snapshot(ctx)
	if err != nil {
		return err
	}
	if visibleOnly {
		windows := make([]model.WindowSnapshot, len(result.Windows))
		for i, w := range result.Windows {
			w.Tree = model.FilterVisible(w.Tree)
			windows[i] = w
		}
		result.Windows = windows
	}
	if flat {
		return output.Fprint(cmd.OutOrStdout(), output.SnapshotFlatResult{
			TS:       time.Now().Unix(),
			Screen:   device.Accessibility.ScreenInfo(),
			Degraded: result.Degraded,
			Elements: model.FlattenWindows(result.Windows),
		})
	}
	return output.Fprint(cmd.OutOrStdout(), output.SnapshotResult{
		TS:     time.Now().Unix(),
		Screen: device.Accessibility.ScreenInfo(),
		Result: result,
	})
}
