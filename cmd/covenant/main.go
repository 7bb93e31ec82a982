package main

import (
	"os"

	"github.com/covenant-forge/covenant/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
