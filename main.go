package main

import (
	"os"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
