package main

import (
	"os"

	"github.com/felixgeelhaar/specguard/internal/infrastructure/cli"
)

func main() {
	os.Exit(cli.Execute())
}
