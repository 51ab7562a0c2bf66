package main

import (
	"os"

	"github.com/satishbabariya/ormkit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
