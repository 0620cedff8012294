package main

import (
	"os"

	"github.com/soundprediction/footballkg/cmd/footballkg"
)

func main() {
	if err := footballkg.Execute(); err != nil {
		os.Exit(1)
	}
}
