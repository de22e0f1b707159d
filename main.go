// server/main.go
package main

import (
	"log"

	"github.com/ViniZap4/paper-server/cli"
	"github.com/ViniZap4/paper-server/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}

	cli.Main()
}
