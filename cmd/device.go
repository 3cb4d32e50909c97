package cmd

import (
	"github.com/mj1618/remote-ui-mcp/internal/platform"
	"github.com/mj1618/remote-ui-mcp/internal/platform/virtual"
)

// openDevice returns a virtual device built from the layout file at path, or
// the registered backend when path is empty.
func openDevice(path string) (*platform.Provider, error) {
	if path == "" {
		return platform.NewProvider()
	}
	layout, err := virtual.LoadLayout(path)
	if err != nil {
		return nil, err
	}
	dev, err := layout.Build()
	if err != nil {
		return nil, err
	}
	return dev.Provider(), nil
}
