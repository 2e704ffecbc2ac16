package main

import (
	"os"

	"github.com/girste/cyberaudit/cmd/cyberaudit/commands"
)

var version = "1.0.0"

func main() {
	os.Exit(commands.Execute(version))
}
