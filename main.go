package main

import (
	"github.com/DeprecatedLuke/oh-my-pi/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit)
	cmd.Execute()
}
