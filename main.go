package main

import "github.com/KaramelBytes/wrangle-cli/cmd"

func main() {
	cmd.Execute()
}
