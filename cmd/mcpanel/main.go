package main

import (
	"os"

	"github.com/gaborage/mcpanel/internal/commands"
)

var version = "dev" // set during build

func main() {
	os.Exit(commands.Execute(commands.NewRootCommand(version, nil)))
}
