package main

import (
	"github.com/sdcli/sdcli/cmd"
)

func main() {
	cmd.Execute()
}
