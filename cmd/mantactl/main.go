package main

import (
	"os"

	"mantacam/internal/cli"
)

func main() { os.Exit(cli.Main()) }
