package main

import (
	"os"

	"MarketLens/cmd/marketlens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
