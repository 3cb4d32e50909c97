package main

import "github.com/mj1618/remote-ui-mcp/cmd"

func main() {
	cmd.Execute()
}
