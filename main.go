package main

import "github.com/KaramelBytes/draftlink-cli/cmd"

func main() {
	cmd.Execute()
}
