package main

import "github.com/truemediaorg/cobaltbot/cmd"

func main() {
	cmd.Execute()
}
