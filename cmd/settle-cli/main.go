package main

import "gallery-core/cmd/settle-cli/cmd"

func main() {
	cmd.Execute()
}
