package main

import "github.com/KaramelBytes/salestier-cli/cmd"

func main() {
	cmd.Execute()
}
