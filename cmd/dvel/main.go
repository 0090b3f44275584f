package main

import (
	"github.com/mosaicnetworks/dvel/cmd/dvel/commands"
)

func main() {
	commands.Execute()
}
