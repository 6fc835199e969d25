package main

import (
	"os"

	"github.com/tbourn/go-helpdesk-bridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
