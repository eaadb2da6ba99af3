package main

import (
	"os"

	"github.com/talentum-plus/talentum/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
