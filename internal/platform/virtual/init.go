package virtual

import "github.com/mj1618/remote-ui-mcp/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		dev, err := DemoLayout().Build()
		if err != nil {
			return nil, err
		}
		return dev.Provider(), nil
	}
}
